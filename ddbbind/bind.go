// Package ddbbind attaches a rendered expression bundle to the AWS SDK
// input structs, copying only the fragments that were actually
// rendered. It also bridges expressions built with the SDK's own
// expression package into the same bundle shape, so both construction
// styles can share the request plumbing.
package ddbbind

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"dynamap/conditions"
)

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

// Put attaches the condition fragment to a PutItemInput.
func Put(in *dynamodb.PutItemInput, x *conditions.Expressions) *dynamodb.PutItemInput {
	in.ConditionExpression = strOrNil(x.Condition)
	in.ExpressionAttributeNames = x.Names
	in.ExpressionAttributeValues = x.Values
	return in
}

// Update attaches the update and condition fragments to an
// UpdateItemInput.
func Update(in *dynamodb.UpdateItemInput, x *conditions.Expressions) *dynamodb.UpdateItemInput {
	in.UpdateExpression = strOrNil(x.Update)
	in.ConditionExpression = strOrNil(x.Condition)
	in.ExpressionAttributeNames = x.Names
	in.ExpressionAttributeValues = x.Values
	return in
}

// Delete attaches the condition fragment to a DeleteItemInput.
func Delete(in *dynamodb.DeleteItemInput, x *conditions.Expressions) *dynamodb.DeleteItemInput {
	in.ConditionExpression = strOrNil(x.Condition)
	in.ExpressionAttributeNames = x.Names
	in.ExpressionAttributeValues = x.Values
	return in
}

// Query attaches the key condition, filter and projection fragments to
// a QueryInput.
func Query(in *dynamodb.QueryInput, x *conditions.Expressions) *dynamodb.QueryInput {
	in.KeyConditionExpression = strOrNil(x.KeyCondition)
	in.FilterExpression = strOrNil(x.Filter)
	in.ProjectionExpression = strOrNil(x.Projection)
	in.ExpressionAttributeNames = x.Names
	in.ExpressionAttributeValues = x.Values
	return in
}

// Scan attaches the filter and projection fragments to a ScanInput.
func Scan(in *dynamodb.ScanInput, x *conditions.Expressions) *dynamodb.ScanInput {
	in.FilterExpression = strOrNil(x.Filter)
	in.ProjectionExpression = strOrNil(x.Projection)
	in.ExpressionAttributeNames = x.Names
	in.ExpressionAttributeValues = x.Values
	return in
}

// Get attaches the projection fragment to a GetItemInput.
func Get(in *dynamodb.GetItemInput, x *conditions.Expressions) *dynamodb.GetItemInput {
	in.ProjectionExpression = strOrNil(x.Projection)
	in.ExpressionAttributeNames = x.Names
	return in
}

// FromSDK converts an expression built with the SDK's expression
// package into a bundle, so callers can mix SDK-built expressions with
// the binding helpers above. Placeholder styles differ (#0/:0 versus
// #n0/:v0) but never meet within one request.
func FromSDK(e expression.Expression) *conditions.Expressions {
	x := &conditions.Expressions{
		Names:  e.Names(),
		Values: e.Values(),
	}
	if s := e.Condition(); s != nil {
		x.Condition = *s
	}
	if s := e.Filter(); s != nil {
		x.Filter = *s
	}
	if s := e.KeyCondition(); s != nil {
		x.KeyCondition = *s
	}
	if s := e.Projection(); s != nil {
		x.Projection = *s
	}
	if s := e.Update(); s != nil {
		x.Update = *s
	}
	return x
}

// Command demo renders a few expressions against the example model and
// prints them. With -table it also issues the query against DynamoDB
// using ambient AWS credentials.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"dynamap/conditions"
	"dynamap/ddbbind"
	"dynamap/example"
	"dynamap/schema"
	"dynamap/tracking"
)

func main() {
	table := flag.String("table", "", "query this DynamoDB table instead of just printing expressions")
	flag.Parse()
	if err := run(context.Background(), *table); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, table string) error {
	spec, err := schema.ParseModelSpec(example.ModelYAML)
	if err != nil {
		return err
	}
	model, err := spec.Build()
	if err != nil {
		return err
	}
	fmt.Printf("model %s: %d columns, %d keys\n", model.Name, len(model.Columns), len(model.Keys))

	store := tracking.NewStore()

	user := &example.User{ID: "user#1"}
	user.SetEmail(store, "alice@example.com")
	user.ClearAge(store)

	key, err := conditions.Attr(example.UserID).Equal("user#1")
	if err != nil {
		return err
	}
	adult, err := conditions.Attr(example.UserAge).GreaterOrEqual(18)
	if err != nil {
		return err
	}
	tagged, err := conditions.Attr(example.UserTags).Contains("beta")
	if err != nil {
		return err
	}

	query, err := conditions.Render(schema.Dump, store, conditions.RenderInput{
		Key:        key,
		Filter:     adult.And(tagged),
		Projection: []conditions.Path{conditions.Attr(example.UserEmail), conditions.Attr(example.UserAge)},
	})
	if err != nil {
		return err
	}
	fmt.Println("query:", query.Map())

	update, err := conditions.Render(schema.Dump, store, conditions.RenderInput{
		Object: user,
		Update: true,
		Atomic: true,
	})
	if err != nil {
		return err
	}
	fmt.Println("update:", update.Map())

	if table == "" {
		return nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg)

	in := ddbbind.Query(&dynamodb.QueryInput{TableName: aws.String(table)}, query)
	out, err := client.Query(ctx, in)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	fmt.Printf("%d items\n", out.Count)
	return nil
}

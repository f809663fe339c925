// Package example declares a small model the way a consumer of this
// module would: shared column pointers, an entity struct implementing
// schema.Object, and helpers for marking mutations through a tracking
// store.
package example

import (
	_ "embed"

	"dynamap/schema"
	"dynamap/tracking"
)

// ModelYAML is the declarative twin of the columns below; tooling that
// consumes model specs loads it through schema.ParseModelSpec.
//
//go:embed model.yaml
var ModelYAML []byte

var (
	UserID    = &schema.Column{Field: "ID", Name: "id", Type: schema.String{}}
	UserEmail = &schema.Column{Field: "Email", Name: "email", Type: schema.String{}}
	UserAge   = &schema.Column{Field: "Age", Name: "age", Type: schema.Number{}}
	UserTags  = &schema.Column{Field: "Tags", Name: "tags", Type: schema.StringSet{}}
	UserPrefs = &schema.Column{Field: "Prefs", Name: "prefs", Type: schema.Map{
		Fields: map[string]schema.TypeDef{
			"theme":  schema.String{},
			"volume": schema.Number{},
		},
	}}
)

var userColumns = []*schema.Column{UserID, UserEmail, UserAge, UserTags, UserPrefs}

type User struct {
	ID    string
	Email string
	Age   *int
	Tags  []string
	Prefs map[string]any
}

func (u *User) Columns() []*schema.Column { return userColumns }
func (u *User) Keys() []*schema.Column    { return []*schema.Column{UserID} }

func (u *User) Get(col *schema.Column) any {
	switch col {
	case UserID:
		return u.ID
	case UserEmail:
		return u.Email
	case UserAge:
		if u.Age == nil {
			return nil
		}
		return *u.Age
	case UserTags:
		return u.Tags
	case UserPrefs:
		return u.Prefs
	default:
		return nil
	}
}

// SetEmail mutates the attribute and marks it, the way a generated
// model layer would wrap every setter.
func (u *User) SetEmail(store *tracking.Store, email string) {
	u.Email = email
	store.Mark(u, UserEmail)
}

// ClearAge removes the attribute value; marking on delete captures the
// intent "ensure this has no value" even if the column was never
// loaded.
func (u *User) ClearAge(store *tracking.Store) {
	u.Age = nil
	store.Mark(u, UserAge)
}

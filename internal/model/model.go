package model

import "strings"

// Contact is the data structure for a person that we know.
// All fields with the exception of Id, Favorite and CreatedAt are optional.
type Contact struct {
	Id        int64   `json:"id"                db:"id"        yaml:"-"`
	First     *string `json:"first,omitempty"   db:"firstname" yaml:"first,omitempty"`
	Last      *string `json:"last,omitempty"    db:"lastname"  yaml:"last,omitempty"`
	Avatar    *string `json:"avatar,omitempty"  db:"avatar"    yaml:"avatar,omitempty"`
	Twitter   *string `json:"twitter,omitempty" db:"twitter"   yaml:"twitter,omitempty"`
	Notes     *string `json:"notes,omitempty"   db:"notes"     yaml:"notes,omitempty"`
	Favorite  bool    `json:"favorite"          db:"favorite"  yaml:"favorite,omitempty"`
	CreatedAt int64   `json:"createdAt"         db:"createdat" yaml:"-"`
}

// HasName reports whether the first or the last name is set to a non-empty value.
func (c Contact) HasName() bool {
	return Value(c.First) != "" || Value(c.Last) != ""
}

// Name returns first and last name separated by a space.
func (c Contact) Name() string {
	return strings.TrimSpace(Value(c.First) + " " + Value(c.Last))
}

// ContactUpdate holds the values of a partial update. Nil fields are left untouched.
type ContactUpdate struct {
	First    *string `json:"first,omitempty"`
	Last     *string `json:"last,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Twitter  *string `json:"twitter,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

// IsEmpty returns true if the update would not change anything.
func (u ContactUpdate) IsEmpty() bool {
	return u.First == nil && u.Last == nil && u.Avatar == nil &&
		u.Twitter == nil && u.Notes == nil && u.Favorite == nil
}

// Apply writes all fields that are set in the update into the contact.
func (u ContactUpdate) Apply(c *Contact) {
	if u.First != nil {
		c.First = Ptr(*u.First)
	}
	if u.Last != nil {
		c.Last = Ptr(*u.Last)
	}
	if u.Avatar != nil {
		c.Avatar = Ptr(*u.Avatar)
	}
	if u.Twitter != nil {
		c.Twitter = Ptr(*u.Twitter)
	}
	if u.Notes != nil {
		c.Notes = Ptr(*u.Notes)
	}
	if u.Favorite != nil {
		c.Favorite = *u.Favorite
	}
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// Value dereferences s, returning the empty string for nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

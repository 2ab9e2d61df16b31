// Package model holds the JSON types of the contacts API for programs that talk to the service.
package model

// Contact is the data structure for a person that we know.
// All fields with the exception of Id, Favorite and CreatedAt are optional. CreatedAt is the
// creation time in milliseconds since the Unix epoch.
type Contact struct {
	Id        int64   `json:"id"`
	First     *string `json:"first,omitempty"`
	Last      *string `json:"last,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Twitter   *string `json:"twitter,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Favorite  bool    `json:"favorite"`
	CreatedAt int64   `json:"createdAt"`
}

// ContactList is the answer to a search. Q is the search term, or nil if there was none.
type ContactList struct {
	Contacts []Contact `json:"contacts"`
	Q        *string   `json:"q"`
}

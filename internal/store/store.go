// Package store holds the data access layer of the contacts app: the ContactStore contract
// the web layer talks to, a SQL implementation for MySQL and SQLite, and an in-memory one.
package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

// ContactStore is everything the web layer needs from the data layer.
type ContactStore interface {
	// GetContacts returns the contacts matching the filter, sorted by last name and then by
	// creation time.
	GetContacts(ctx context.Context, filter Filter) ([]model.Contact, error)
	// CreateEmptyContact creates a contact without any values besides id and creation time.
	CreateEmptyContact(ctx context.Context) (model.Contact, error)
	// CreateContact stores a new contact and returns it with the assigned id.
	CreateContact(ctx context.Context, contact model.Contact) (model.Contact, error)
	// GetContact returns apperr.ErrNotFound if there is no contact with this id.
	GetContact(ctx context.Context, id int64) (model.Contact, error)
	// UpdateContact applies a partial update and returns the full contact afterwards.
	UpdateContact(ctx context.Context, id int64, update model.ContactUpdate) (model.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
}

// Pinger is implemented by stores that can check their backend connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Filter restricts the result of GetContacts.
//
// Query is matched case-insensitively as a substring of the first or the last name; the empty
// query matches every contact. Last names are ordered by their bytes, which is SQLite's BINARY
// collation; the MySQL schema declares utf8mb4_bin on lastname for the same order. Limit 0
// means no limit. Offset skips that many contacts from the beginning of the sorted result.
type Filter struct {
	Query  string
	Limit  int
	Offset int
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// matches reports whether the contact's first or last name contains the query.
func matches(c model.Contact, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(model.Value(c.First)), q) ||
		strings.Contains(strings.ToLower(model.Value(c.Last)), q)
}

// sortContacts orders like the SQL store: last name with missing names first, then creation
// time, then id.
func sortContacts(contacts []model.Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		if (a.Last == nil) != (b.Last == nil) {
			return a.Last == nil
		}
		if la, lb := model.Value(a.Last), model.Value(b.Last); la != lb {
			return la < lb
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.Id < b.Id
	})
}

// page applies offset and limit to an already sorted result.
func page(contacts []model.Contact, limit, offset int) []model.Contact {
	if offset >= len(contacts) {
		return []model.Contact{}
	}
	contacts = contacts[offset:]
	if limit > 0 && limit < len(contacts) {
		contacts = contacts[:limit]
	}
	return contacts
}

package store

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// DefaultSeed returns the sample contacts that ship with the app.
func DefaultSeed() ([]model.Contact, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeed parses a YAML list of contacts. An empty document yields no contacts.
func LoadSeed(r io.Reader) ([]model.Contact, error) {
	var contacts []model.Contact
	if err := yaml.NewDecoder(r).Decode(&contacts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return contacts, nil
}

// Seed enters the contacts into the store. A contact whose name is already present is not
// added again, so seeding twice is harmless. Contacts without a name are always added. It
// returns the number of contacts added.
func Seed(ctx context.Context, s ContactStore, contacts []model.Contact) (int, error) {
	existing, err := s.GetContacts(ctx, Filter{})
	if err != nil {
		return 0, err
	}
	names := make(map[string]bool, len(existing))
	for _, c := range existing {
		if c.HasName() {
			names[c.Name()] = true
		}
	}
	added := 0
	for _, contact := range contacts {
		if contact.HasName() && names[contact.Name()] {
			continue
		}
		if _, err := s.CreateContact(ctx, contact); err != nil {
			return added, err
		}
		if contact.HasName() {
			names[contact.Name()] = true
		}
		added++
	}
	return added, nil
}

package store

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/dirk.krummacker/contacts-app/internal/apperr"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

var _ ContactStore = (*MemoryStore)(nil)

// MemoryStore keeps all contacts in a map. It is safe for concurrent use. Nothing survives a
// restart.
type MemoryStore struct {
	mu       sync.RWMutex
	contacts map[int64]model.Contact
	lastID   int64
	opts     options
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		contacts: make(map[int64]model.Contact),
		opts:     buildOptions(opts),
	}
}

func (s *MemoryStore) GetContacts(ctx context.Context, filter Filter) ([]model.Contact, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperr.Invalid("limit and offset must not be negative")
	}
	s.mu.RLock()
	result := make([]model.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if matches(c, filter.Query) {
			result = append(result, clone(c))
		}
	}
	s.mu.RUnlock()
	sortContacts(result)
	return page(result, filter.Limit, filter.Offset), nil
}

func (s *MemoryStore) CreateEmptyContact(ctx context.Context) (model.Contact, error) {
	return s.CreateContact(ctx, model.Contact{})
}

func (s *MemoryStore) CreateContact(ctx context.Context, contact model.Contact) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	contact = clone(contact)
	contact.Id = s.lastID
	contact.CreatedAt = s.opts.now().UnixMilli()
	s.contacts[contact.Id] = contact
	return clone(contact), nil
}

func (s *MemoryStore) GetContact(ctx context.Context, id int64) (model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.contacts[id]
	if !ok {
		return model.Contact{}, fmt.Errorf("get contact %d: %w", id, apperr.ErrNotFound)
	}
	return clone(contact), nil
}

func (s *MemoryStore) UpdateContact(ctx context.Context, id int64, update model.ContactUpdate) (model.Contact, error) {
	if update.IsEmpty() {
		return model.Contact{}, apperr.ErrNoChanges
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	contact, ok := s.contacts[id]
	if !ok {
		return model.Contact{}, fmt.Errorf("update contact %d: %w", id, apperr.ErrNotFound)
	}
	update.Apply(&contact)
	s.contacts[id] = contact
	return clone(contact), nil
}

func (s *MemoryStore) DeleteContact(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[id]; !ok {
		return fmt.Errorf("delete contact %d: %w", id, apperr.ErrNotFound)
	}
	delete(s.contacts, id)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// clone copies the optional values, so that callers never share them with the stored contact.
func clone(c model.Contact) model.Contact {
	for _, field := range []**string{&c.First, &c.Last, &c.Avatar, &c.Twitter, &c.Notes} {
		if *field != nil {
			*field = model.Ptr(**field)
		}
	}
	return c
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-app/internal/apperr"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

var _ ContactStore = (*SQLStore)(nil)

// maxInt is the largest possible int value. MySQL does not accept OFFSET without LIMIT, so
// this is the limit used when only an offset is requested.
const maxInt = int(^uint(0) >> 1)

// contactColumns lists the columns of the contacts table in the order of model.Contact.
const contactColumns = "id, firstname, lastname, avatar, twitter, notes, favorite, createdat"

// likeEscaper escapes the LIKE wildcards in user input. '!' is declared as the escape
// character in every LIKE clause.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// SQLStore implements ContactStore on top of a MySQL or SQLite database.
type SQLStore struct {
	db   *sqlx.DB
	opts options

	// insert is a prepared statement for creating a contact on the database.
	insert *sqlx.NamedStmt
	// selectWhereId is a prepared statement for selecting the contact with a given id.
	selectWhereId *sqlx.Stmt
	// deleteWhereId is a prepared statement for deleting the contact with a given id.
	deleteWhereId *sqlx.Stmt
}

// NewSQLStore prepares all statements on db. The database can be a real database for
// production use or a mock database within unit tests.
func NewSQLStore(db *sqlx.DB, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{db: db, opts: buildOptions(opts)}
	var err error

	// Prepared statements offer a significant speed increase if executed many times.
	s.insert, err = db.PrepareNamed(`
		INSERT INTO contacts (firstname, lastname, avatar, twitter, notes, favorite, createdat)
		VALUES (:firstname, :lastname, :avatar, :twitter, :notes, :favorite, :createdat)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.selectWhereId, err = db.Preparex(`
		SELECT ` + contactColumns + ` FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select: %w", err)
	}
	s.deleteWhereId, err = db.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare delete: %w", err)
	}
	return s, nil
}

func (s *SQLStore) GetContacts(ctx context.Context, filter Filter) ([]model.Contact, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperr.Invalid("limit and offset must not be negative")
	}
	var args []interface{}
	query := "SELECT " + contactColumns + " FROM contacts"
	if filter.Query != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Query)) + "%"
		query += `
			WHERE LOWER(firstname) LIKE ? ESCAPE '!'
				OR LOWER(lastname) LIKE ? ESCAPE '!'`
		args = append(args, pattern, pattern)
	}
	query += `
			ORDER BY lastname, createdat, id`
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit == 0 {
			limit = maxInt
		}
		query += `
			LIMIT ?
			OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	contacts := []model.Contact{}
	if err := s.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	return contacts, nil
}

func (s *SQLStore) CreateEmptyContact(ctx context.Context) (model.Contact, error) {
	return s.CreateContact(ctx, model.Contact{})
}

func (s *SQLStore) CreateContact(ctx context.Context, contact model.Contact) (model.Contact, error) {
	contact.CreatedAt = s.opts.now().UnixMilli()
	result, err := s.insert.ExecContext(ctx, contact)
	if err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	contact.Id = id
	return contact, nil
}

func (s *SQLStore) GetContact(ctx context.Context, id int64) (model.Contact, error) {
	var contact model.Contact
	err := s.selectWhereId.GetContext(ctx, &contact, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, fmt.Errorf("get contact %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("get contact %d: %w", id, err)
	}
	return contact, nil
}

// UpdateContact only writes the columns whose values are set in the update.
func (s *SQLStore) UpdateContact(ctx context.Context, id int64, update model.ContactUpdate) (model.Contact, error) {
	var args []interface{}
	sql := "UPDATE contacts SET "
	if update.First != nil {
		args = append(args, *update.First)
		sql += "firstname=?, "
	}
	if update.Last != nil {
		args = append(args, *update.Last)
		sql += "lastname=?, "
	}
	if update.Avatar != nil {
		args = append(args, *update.Avatar)
		sql += "avatar=?, "
	}
	if update.Twitter != nil {
		args = append(args, *update.Twitter)
		sql += "twitter=?, "
	}
	if update.Notes != nil {
		args = append(args, *update.Notes)
		sql += "notes=?, "
	}
	if update.Favorite != nil {
		args = append(args, *update.Favorite)
		sql += "favorite=?, "
	}

	// It only makes sense to continue if we have at least one value to update.
	if len(args) == 0 {
		return model.Contact{}, apperr.ErrNoChanges
	}

	sql = sql[:len(sql)-2]
	sql += " WHERE id=?"
	args = append(args, id)
	result, err := s.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return model.Contact{}, fmt.Errorf("update contact %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.Contact{}, fmt.Errorf("update contact %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return model.Contact{}, fmt.Errorf("update contact %d: %w", id, apperr.ErrNotFound)
	}

	// Return the full contact after the update.
	return s.GetContact(ctx, id)
}

func (s *SQLStore) DeleteContact(ctx context.Context, id int64) error {
	result, err := s.deleteWhereId.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("delete contact %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the prepared statements and the database handle.
func (s *SQLStore) Close() error {
	return errors.Join(
		s.insert.Close(),
		s.selectWhereId.Close(),
		s.deleteWhereId.Close(),
		s.db.Close(),
	)
}

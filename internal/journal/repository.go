package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("journal entry not found")

type EntryRepository struct{}

type EntryRepositoryInterface interface {
	Create(ctx context.Context, q sqlx.ExtContext, entry *Entry) (int, error)
	GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*Entry, error)
	GetByUserID(ctx context.Context, q sqlx.ExtContext, userID int) ([]*Entry, error)
	SearchByUserID(ctx context.Context, q sqlx.ExtContext, userID int, term string) ([]*Entry, error)
	UpdateContent(ctx context.Context, q sqlx.ExtContext, id int, title, text string) error
	Delete(ctx context.Context, q sqlx.ExtContext, id int) error
	MarkProcessing(ctx context.Context, q sqlx.ExtContext, id int) error
	MarkAnalyzed(ctx context.Context, q sqlx.ExtContext, id int, emotion string) error
	MarkFailed(ctx context.Context, q sqlx.ExtContext, id int, errorMessage string) error
}

func NewEntryRepository() EntryRepositoryInterface {
	return &EntryRepository{}
}

const entryColumns = `
	id, user_id, title, text, emotion, status,
	error_message, created_at, updated_at
`

func (r *EntryRepository) Create(ctx context.Context, q sqlx.ExtContext, entry *Entry) (int, error) {
	query := q.Rebind(`
		INSERT INTO journal_entries (
			user_id, title, text, status, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	var id int
	err := q.QueryRowxContext(
		ctx,
		query,
		entry.UserID,
		entry.Title,
		entry.Text,
		entry.Status,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert journal entry: %w", err)
	}

	return id, nil
}

func (r *EntryRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*Entry, error) {
	query := q.Rebind(`SELECT ` + entryColumns + ` FROM journal_entries WHERE id = ?`)

	var e Entry
	if err := sqlx.GetContext(ctx, q, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get journal entry %d: %w", id, err)
	}

	return &e, nil
}

// GetByUserID lists a user's entries, newest first.
func (r *EntryRepository) GetByUserID(ctx context.Context, q sqlx.ExtContext, userID int) ([]*Entry, error) {
	query := q.Rebind(`
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`)

	entries := []*Entry{}
	if err := sqlx.SelectContext(ctx, q, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list journal entries for user %d: %w", userID, err)
	}

	return entries, nil
}

// SearchByUserID lists a user's entries whose title, text or emotion
// contains term, ignoring case. Newest first.
func (r *EntryRepository) SearchByUserID(ctx context.Context, q sqlx.ExtContext, userID int, term string) ([]*Entry, error) {
	query := q.Rebind(`
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE user_id = ?
		  AND (LOWER(title) LIKE ? ESCAPE '\'
		       OR LOWER(text) LIKE ? ESCAPE '\'
		       OR LOWER(COALESCE(emotion, '')) LIKE ? ESCAPE '\')
		ORDER BY created_at DESC, id DESC
	`)

	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	entries := []*Entry{}
	if err := sqlx.SelectContext(ctx, q, &entries, query, userID, pattern, pattern, pattern); err != nil {
		return nil, fmt.Errorf("search journal entries for user %d: %w", userID, err)
	}

	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// UpdateContent replaces title and text and resets the analysis.
func (r *EntryRepository) UpdateContent(ctx context.Context, q sqlx.ExtContext, id int, title, text string) error {
	query := q.Rebind(`
		UPDATE journal_entries
		SET title = ?,
		    text = ?,
		    emotion = NULL,
		    error_message = NULL,
		    status = ?,
		    updated_at = ?
		WHERE id = ?
	`)
	return execOne(ctx, q, query, title, text, StatusPending, now(), id)
}

func (r *EntryRepository) Delete(ctx context.Context, q sqlx.ExtContext, id int) error {
	query := q.Rebind(`DELETE FROM journal_entries WHERE id = ?`)
	return execOne(ctx, q, query, id)
}

func (r *EntryRepository) MarkProcessing(ctx context.Context, q sqlx.ExtContext, id int) error {
	logrus.WithField("entry_id", id).Debug("Marking entry as PROCESSING")
	query := q.Rebind(`
		UPDATE journal_entries
		SET status = ?, updated_at = ?
		WHERE id = ?
	`)
	return execOne(ctx, q, query, StatusProcessing, now(), id)
}

func (r *EntryRepository) MarkAnalyzed(ctx context.Context, q sqlx.ExtContext, id int, emotion string) error {
	query := q.Rebind(`
		UPDATE journal_entries
		SET status = ?,
		    emotion = ?,
		    error_message = NULL,
		    updated_at = ?
		WHERE id = ?
	`)
	return execOne(ctx, q, query, StatusAnalyzed, emotion, now(), id)
}

func (r *EntryRepository) MarkFailed(ctx context.Context, q sqlx.ExtContext, id int, errorMessage string) error {
	query := q.Rebind(`
		UPDATE journal_entries
		SET status = ?,
		    error_message = ?,
		    updated_at = ?
		WHERE id = ?
	`)
	return execOne(ctx, q, query, StatusFailed, errorMessage, now(), id)
}

func execOne(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

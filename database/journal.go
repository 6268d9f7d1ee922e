package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Entry - одно действие администратора
type Entry struct {
	ID         uuid.UUID `json:"id"`
	AdminEmail string    `json:"admin_email"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Journal записывает и читает действия администраторов.
// Record не возвращает ошибку: запись журнала не должна ломать действие.
type Journal interface {
	Record(ctx context.Context, e Entry)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Nop - журнал без базы данных.
type Nop struct{}

// Record ничего не делает.
func (Nop) Record(context.Context, Entry) {}

// Recent всегда возвращает пустой список.
func (Nop) Recent(context.Context, int) ([]Entry, error) { return []Entry{}, nil }

// PGJournal - журнал в PostgreSQL.
type PGJournal struct {
	db *sql.DB
}

// NewJournal создаёт журнал поверх пула.
func NewJournal(db *sql.DB) *PGJournal {
	return &PGJournal{db: db}
}

// EnsureSchema создаёт таблицу, если её нет.
func (j *PGJournal) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbQueryTimeout)
	defer cancel()
	if _, err := j.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return nil
}

// Record сохраняет запись. Ошибки только логируются; отмена ctx
// запроса не прерывает запись.
func (j *PGJournal) Record(ctx context.Context, e Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dbQueryTimeout)
	defer cancel()

	const q = `
		INSERT INTO admin_journal (id, admin_email, action, resource, resource_id, success, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := j.db.ExecContext(ctx, q,
		e.ID, e.AdminEmail, e.Action, e.Resource,
		nullString(e.ResourceID), e.Success, nullString(e.Message), e.CreatedAt,
	); err != nil {
		log.Printf("[journal] не удалось записать %s %s/%s: %v", e.Action, e.Resource, e.ResourceID, err)
	}
}

// Recent - последние записи, новые сверху.
func (j *PGJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbQueryTimeout)
	defer cancel()

	const q = `
		SELECT id, admin_email, action, resource, resource_id, success, message, created_at
		  FROM admin_journal
		 ORDER BY created_at DESC
		 LIMIT $1`
	rows, err := j.db.QueryContext(ctx, q, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			resourceID sql.NullString
			message    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.AdminEmail, &e.Action, &e.Resource,
			&resourceID, &e.Success, &message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("Recent scan: %w", err)
		}
		e.ResourceID = resourceID.String
		e.Message = message.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Recent rows: %w", err)
	}
	return entries, nil
}

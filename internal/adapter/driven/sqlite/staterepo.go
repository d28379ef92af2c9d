package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// notificationStateKey is the kv_state slot holding the notifier's state.
const notificationStateKey = "notificationState"

// Compile-time interface satisfaction check.
var _ driven.NotificationStateStore = (*NotificationStateRepo)(nil)

// NotificationStateRepo persists model.NotificationState as a JSON document
// in a single kv_state row.
type NotificationStateRepo struct {
	db *DB
}

// NewNotificationStateRepo creates a new NotificationStateRepo.
func NewNotificationStateRepo(db *DB) *NotificationStateRepo {
	return &NotificationStateRepo{db: db}
}

// notificationStateDoc is the stored JSON shape:
// {"lastNotified":{"<prId>":"<RFC3339>"}}.
type notificationStateDoc struct {
	LastNotified map[string]time.Time `json:"lastNotified"`
}

// Load returns the stored state, or an empty state if the slot is unset.
func (r *NotificationStateRepo) Load(ctx context.Context) (model.NotificationState, error) {
	const query = `SELECT value FROM kv_state WHERE key = ?`

	var raw string
	err := r.db.Reader.QueryRowContext(ctx, query, notificationStateKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewNotificationState(), nil
	}
	if err != nil {
		return model.NotificationState{}, fmt.Errorf("load notification state: %w", err)
	}

	var doc notificationStateDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return model.NotificationState{}, fmt.Errorf("decode notification state: %w", err)
	}

	state := model.NewNotificationState()
	for id, ts := range doc.LastNotified {
		state.LastNotified[id] = ts
	}
	return state, nil
}

// Save overwrites the slot with the given state.
func (r *NotificationStateRepo) Save(ctx context.Context, state model.NotificationState) error {
	doc := notificationStateDoc{LastNotified: make(map[string]time.Time, len(state.LastNotified))}
	for id, ts := range state.LastNotified {
		doc.LastNotified[id] = ts.UTC()
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode notification state: %w", err)
	}

	const query = `INSERT INTO kv_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.Writer.ExecContext(ctx, query, notificationStateKey, string(raw)); err != nil {
		return fmt.Errorf("save notification state: %w", err)
	}
	return nil
}

package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is one signal that passed the gate, with the outcome of its delivery.
type Event struct {
	ID         string
	Signal     string
	PluginName string
	ActionName string
	Delivered  bool
	Error      string
	Duration   time.Duration
	CreatedAt  time.Time
}

// EventRepository provides access to the signal event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record appends an event. ID and CreatedAt are filled in when empty.
func (r *EventRepository) Record(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO signal_events (id, signal, plugin_name, action_name, delivered, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Signal, e.PluginName, e.ActionName, e.Delivered, e.Error, e.Duration.Milliseconds(), e.CreatedAt.UTC(),
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, signal, plugin_name, action_name, delivered, error, duration_ms, created_at
		 FROM signal_events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var delivered int
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.Signal, &e.PluginName, &e.ActionName, &delivered, &e.Error, &durationMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Delivered = delivered != 0
		e.Duration = time.Duration(durationMs) * time.Millisecond
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountBySignal returns the number of recorded events per signal.
func (r *EventRepository) CountBySignal() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT signal, COUNT(*) FROM signal_events GROUP BY signal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var signal string
		var n int
		if err := rows.Scan(&signal, &n); err != nil {
			return nil, err
		}
		counts[signal] = n
	}
	return counts, rows.Err()
}

// Prune deletes events older than the cutoff and returns how many were removed.
// Timestamps are stored in UTC, so the cutoff is converted before comparing.
func (r *EventRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM signal_events WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

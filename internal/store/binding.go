package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Binding ties a signal to a plugin action.
type Binding struct {
	Signal     string
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BindingRepository provides access to signal bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Upsert creates or replaces the binding for b.Signal.
func (r *BindingRepository) Upsert(b *Binding) error {
	now := time.Now().UTC()
	config := b.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO bindings (signal, plugin_name, action_name, config, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(signal) DO UPDATE SET
			plugin_name = excluded.plugin_name,
			action_name = excluded.action_name,
			config = excluded.config,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		b.Signal, b.PluginName, b.ActionName, string(config), b.Enabled, now, now,
	)
	if err != nil {
		return err
	}

	b.Config = config
	b.UpdatedAt = now
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	return nil
}

// Get returns the binding for a signal.
// Returns nil, nil if the signal is not bound.
func (r *BindingRepository) Get(signal string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(
		`SELECT signal, plugin_name, action_name, config, enabled, created_at, updated_at
		 FROM bindings WHERE signal = ?`,
		signal,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// List returns all bindings ordered by signal.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT signal, plugin_name, action_name, config, enabled, created_at, updated_at
		 FROM bindings ORDER BY signal`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

// Delete removes the binding for a signal.
func (r *BindingRepository) Delete(signal string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE signal = ?`, signal)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBinding(row scanner) (*Binding, error) {
	b := &Binding{}
	var config string
	var enabled int
	if err := row.Scan(&b.Signal, &b.PluginName, &b.ActionName, &config, &enabled, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Config = json.RawMessage(config)
	b.Enabled = enabled != 0
	return b, nil
}

package library

import (
	"fmt"
	"strings"
	"time"
)

// HistoryAction classifies a record mutation.
type HistoryAction string

const (
	ActionInsert   HistoryAction = "insert"
	ActionUpdate   HistoryAction = "update"
	ActionDelete   HistoryAction = "delete"
	ActionSkip     HistoryAction = "skip"
	ActionOverride HistoryAction = "override"
)

// Actors identify which flow performed a mutation.
const (
	ActorWebhook        = "webhook"
	ActorPopulation     = "population"
	ActorReconciliation = "reconciliation"
	ActorScheduler      = "scheduler"
	ActorManual         = "manual"
)

// HistoryEntry is one row of the append-only processing log. Rows are
// written in the same transaction as the mutation they describe; the
// only removal path is the purge that accompanies an entity delete.
type HistoryEntry struct {
	ID         int64
	EntityType MediaType
	EntityKey  string
	Action     HistoryAction
	OldValue   string
	NewValue   string
	Actor      string
	OccurredAt time.Time
}

func appendHistory(q querier, h *HistoryEntry) error {
	if h.OccurredAt.IsZero() {
		h.OccurredAt = time.Now().UTC()
	}
	result, err := q.Exec(`
		INSERT INTO processing_history (entity_type, entity_key, action, old_value, new_value, actor, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.EntityType, h.EntityKey, h.Action, h.OldValue, h.NewValue, h.Actor, h.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	h.ID = id
	return nil
}

// AppendHistory records a standalone history row outside an entity
// mutation, in its own transaction.
func (s *Store) AppendHistory(h *HistoryEntry) error { return appendHistory(s.db, h) }

// AppendHistory records a history row within a transaction.
func (t *Tx) AppendHistory(h *HistoryEntry) error { return appendHistory(t.tx, h) }

// purgeHistory removes the accumulated rows for one entity. For series
// the purge also covers the episode keys sharing the series prefix.
func purgeHistory(q querier, entityType MediaType, key string) error {
	var err error
	if entityType == MediaTypeSeries {
		_, err = q.Exec(`
			DELETE FROM processing_history
			WHERE (entity_type = ? AND entity_key = ?)
			   OR (entity_type = ? AND entity_key LIKE ? || ' s%')`,
			MediaTypeSeries, key, MediaTypeEpisode, key,
		)
	} else {
		_, err = q.Exec(
			"DELETE FROM processing_history WHERE entity_type = ? AND entity_key = ?",
			entityType, key,
		)
	}
	if err != nil {
		return fmt.Errorf("purge history %s: %w", key, mapSQLiteError(err))
	}
	return nil
}

func listHistory(q querier, f HistoryFilter) ([]*HistoryEntry, int, error) {
	var conditions []string
	var args []any

	if f.EntityType != nil {
		conditions = append(conditions, "entity_type = ?")
		args = append(args, *f.EntityType)
	}
	if f.EntityKey != nil {
		conditions = append(conditions, "entity_key = ?")
		args = append(args, *f.EntityKey)
	}
	if f.Action != nil {
		conditions = append(conditions, "action = ?")
		args = append(args, *f.Action)
	}
	if f.Actor != nil {
		conditions = append(conditions, "actor = ?")
		args = append(args, *f.Actor)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM processing_history "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	query := `SELECT id, entity_type, entity_key, action, old_value, new_value, actor, occurred_at
		FROM processing_history ` + whereClause + " ORDER BY id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*HistoryEntry
	for rows.Next() {
		h := &HistoryEntry{}
		if err := rows.Scan(&h.ID, &h.EntityType, &h.EntityKey, &h.Action,
			&h.OldValue, &h.NewValue, &h.Actor, &h.OccurredAt); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		results = append(results, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history: %w", err)
	}

	return results, total, nil
}

// History returns processing log rows matching the filter, newest
// first. Returns (results, totalCount, error).
func (s *Store) History(f HistoryFilter) ([]*HistoryEntry, int, error) { return listHistory(s.db, f) }

// History returns processing log rows within a transaction.
func (t *Tx) History(f HistoryFilter) ([]*HistoryEntry, int, error) { return listHistory(t.tx, f) }

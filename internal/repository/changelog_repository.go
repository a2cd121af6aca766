package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

// ChangeLogRepo appends and queries audit entries.  Rows are never
// updated or deleted.
type ChangeLogRepo struct {
	db *sql.DB
}

func NewChangeLogRepo(db *sql.DB) *ChangeLogRepo { return &ChangeLogRepo{db: db} }

// Append stores one entry.  The caller assigns ID and CreatedAt.
func (r *ChangeLogRepo) Append(ctx context.Context, e model.ChangeLogEntry) error {
	var meta any
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(b)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO change_log
		 (id, actor_user_id, actor_role, action, target_group_id, target_user_id, metadata, ignored_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorUserID, e.ActorRole, string(e.Action),
		optionalID(e.TargetGroupID), optionalID(e.TargetUserID),
		meta, e.IgnoredError, e.CreatedAt.UTC())
	return err
}

// Query returns the entries that match f.  Actor names are resolved
// against the users table at read time; ordering follows f.SortBy.
func (r *ChangeLogRepo) Query(ctx context.Context, f model.ChangeLogFilter) ([]model.ChangeLogEntry, error) {
	where := []string{"1=1"}
	args := []any{}
	if name := strings.TrimSpace(f.ActorName); name != "" {
		where = append(where, "LOWER(COALESCE(u.name, '')) LIKE ?")
		args = append(args, "%"+strings.ToLower(name)+"%")
	}
	if len(f.Actions) > 0 {
		where = append(where, "cl.action IN ("+strings.TrimSuffix(strings.Repeat("?,", len(f.Actions)), ",")+")")
		for _, a := range f.Actions {
			args = append(args, string(a))
		}
	}
	if f.From != nil {
		where = append(where, "cl.created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "cl.created_at < ?")
		args = append(args, f.To.UTC())
	}
	q := `SELECT cl.id, cl.actor_user_id, cl.actor_role, COALESCE(u.name, ''), cl.action,
	             cl.target_group_id, cl.target_user_id, cl.metadata, cl.ignored_error, cl.created_at
	      FROM change_log cl
	      LEFT JOIN users u ON u.id = cl.actor_user_id
	      WHERE ` + strings.Join(where, " AND ")
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ChangeLogEntry{}
	for rows.Next() {
		var (
			e           model.ChangeLogEntry
			action      string
			targetGroup sql.NullInt64
			targetUser  sql.NullInt64
			meta        sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ActorUserID, &e.ActorRole, &e.ActorName, &action,
			&targetGroup, &targetUser, &meta, &e.IgnoredError, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = model.Action(action)
		e.CreatedAt = e.CreatedAt.UTC()
		if targetGroup.Valid {
			id := uint64(targetGroup.Int64)
			e.TargetGroupID = &id
		}
		if targetUser.Valid {
			id := uint64(targetUser.Int64)
			e.TargetUserID = &id
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of %s: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	model.SortChangeLog(out, f.SortBy, f.Desc)
	return out, nil
}

func optionalID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

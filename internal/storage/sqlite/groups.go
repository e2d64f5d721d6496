package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/expenseshare/internal/models"
	"github.com/mmynk/expenseshare/internal/storage"
)

// CreateGroup persists a new group with its creator as the only member.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	group.Members = []string{group.CreatedBy}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
			group.ID, group.Name, group.CreatedBy, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			group.ID, group.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group creator: %w", err)
		}
		return nil
	})
}

// GetGroup retrieves a group by ID with its members in join order.
// Returns nil, nil if the group does not exist.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if err := loadMembers(ctx, s.db, []*models.Group{group}); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsByMember returns the groups userID belongs to, oldest first.
func (s *SQLiteStore) ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.listGroups(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at ASC, g.rowid ASC
	`, userID)
}

// ListCommonGroups returns the groups both users belong to, oldest first.
func (s *SQLiteStore) ListCommonGroups(ctx context.Context, userA, userB string) ([]*models.Group, error) {
	return s.listGroups(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at
		FROM groups g
		JOIN group_members a ON a.group_id = g.id AND a.user_id = ?
		JOIN group_members b ON b.group_id = g.id AND b.user_id = ?
		ORDER BY g.created_at ASC, g.rowid ASC
	`, userA, userB)
}

func (s *SQLiteStore) listGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	// Close before loading members: the pool has a single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	if err := loadMembers(ctx, s.db, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// loadMembers fills in Members for every group in one query.
func loadMembers(ctx context.Context, q querier, groups []*models.Group) error {
	if len(groups) == 0 {
		return nil
	}

	byID := make(map[string]*models.Group, len(groups))
	ids := make([]string, len(groups))
	for i, g := range groups {
		byID[g.ID] = g
		ids[i] = g.ID
		g.Members = nil
	}

	rows, err := q.QueryContext(ctx,
		"SELECT group_id, user_id FROM group_members WHERE group_id IN ("+placeholders(len(ids))+") ORDER BY rowid",
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID, userID string
		if err := rows.Scan(&groupID, &userID); err != nil {
			return fmt.Errorf("failed to scan group member: %w", err)
		}
		byID[groupID].Members = append(byID[groupID].Members, userID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate group members: %w", err)
	}
	return nil
}

// AddGroupMember appends a member to an existing group.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := groupExists(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(groupID)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			groupID, userID,
		)
		if isConstraintViolation(err) {
			return fmt.Errorf("user %s in group %s: %w", userID, groupID, storage.ErrAlreadyMember)
		}
		if err != nil {
			return fmt.Errorf("failed to add group member: %w", err)
		}
		return nil
	})
}

// DeleteGroup removes a group and everything recorded in it.
// Splits go first, then expenses, then memberships, then the group itself.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM expense_splits WHERE expense_id IN (SELECT id FROM expenses WHERE group_id = ?)",
			groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete splits: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE group_id = ?", groupID); err != nil {
			return fmt.Errorf("failed to delete expenses: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", groupID); err != nil {
			return fmt.Errorf("failed to delete group members: %w", err)
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
		if err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check deleted rows: %w", err)
		}
		if n == 0 {
			return notFound(groupID)
		}
		return nil
	})
}

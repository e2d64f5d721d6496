package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/mmynk/expenseshare/internal/events"
	"github.com/mmynk/expenseshare/internal/models"
	"github.com/mmynk/expenseshare/internal/storage"
)

const (
	msgGroupNotFound   = "Group not found"
	msgUserNotFound    = "User not found. Ask them to sign in once."
	msgAlreadyMember   = "User is already in this group"
	msgNotAdmin        = "Unauthorized: Only the admin can delete this group"
	msgUnsettledDelete = "Cannot delete group: Not all expenses are settled."
)

// GroupDetails is a group with its member and creator profiles resolved.
type GroupDetails struct {
	Group *models.Group
	// Creator is the group admin. Nil if the record is missing.
	Creator *models.User
	// Members in join order. Missing records are left out.
	Members []*models.User
}

// CreateGroup creates a group with the caller as creator and sole member.
func (l *Ledger) CreateGroup(ctx context.Context, callerID, name string) (*models.Group, error) {
	caller, err := l.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("Group name is required")
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: caller.ID,
		CreatedAt: l.now().Unix(),
	}
	if err := l.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Created group", "group_id", group.ID, "user_id", caller.ID)
	l.publish(ctx, events.Event{Type: events.GroupCreated, GroupID: group.ID, ActorID: caller.ID})
	return group, nil
}

// GetGroup returns a group with its member profiles.
func (l *Ledger) GetGroup(ctx context.Context, callerID, groupID string) (*GroupDetails, error) {
	if _, err := l.caller(ctx, callerID); err != nil {
		return nil, err
	}

	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, notFoundError(msgGroupNotFound)
	}

	ids := append([]string{group.CreatedBy}, group.Members...)
	profiles, err := l.users(ctx, ids)
	if err != nil {
		return nil, err
	}

	details := &GroupDetails{Group: group, Creator: profiles[group.CreatedBy]}
	for _, id := range group.Members {
		if u, ok := profiles[id]; ok {
			details.Members = append(details.Members, u)
		}
	}
	return details, nil
}

// ListMyGroups returns the groups the caller belongs to, oldest first.
// An unknown caller has no groups.
func (l *Ledger) ListMyGroups(ctx context.Context, callerID string) ([]*models.Group, error) {
	caller, err := l.caller(ctx, callerID)
	if errors.Is(err, ErrUnauthenticated) {
		return []*models.Group{}, nil
	}
	if err != nil {
		return nil, err
	}

	groups, err := l.store.ListGroupsByMember(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	return groups, nil
}

// AddMember adds the user named by handleOrEmail to the group. The caller
// must be a member. Email is tried before handle; both are case-insensitive.
func (l *Ledger) AddMember(ctx context.Context, callerID, groupID, handleOrEmail string) error {
	caller, err := l.caller(ctx, callerID)
	if err != nil {
		return err
	}

	input := strings.ToLower(strings.TrimSpace(handleOrEmail))
	if input == "" {
		return validationError("Enter a username or email")
	}

	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return notFoundError(msgGroupNotFound)
	}
	if !group.HasMember(caller.ID) {
		return authError("Only group members can add members")
	}

	target, err := l.store.GetUserByEmail(ctx, input)
	if err != nil {
		return err
	}
	if target == nil {
		target, err = l.store.GetUserByUsername(ctx, input)
		if err != nil {
			return err
		}
	}
	if target == nil {
		return notFoundError(msgUserNotFound)
	}
	if group.HasMember(target.ID) {
		return validationError(msgAlreadyMember)
	}

	err = l.store.AddGroupMember(ctx, group.ID, target.ID)
	switch {
	case errors.Is(err, storage.ErrAlreadyMember):
		return validationError(msgAlreadyMember)
	case errors.Is(err, storage.ErrNotFound):
		return notFoundError(msgGroupNotFound)
	case err != nil:
		return err
	}

	l.logger.InfoContext(ctx, "Added group member", "group_id", group.ID, "user_id", caller.ID, "member_id", target.ID)
	l.publish(ctx, events.Event{
		Type:      events.GroupMemberAdded,
		GroupID:   group.ID,
		ActorID:   caller.ID,
		SubjectID: target.ID,
	})
	return nil
}

// DeleteGroup deletes a fully settled group and everything recorded in it.
// Only the creator may delete.
func (l *Ledger) DeleteGroup(ctx context.Context, callerID, groupID string) error {
	caller, err := l.caller(ctx, callerID)
	if err != nil {
		return err
	}

	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return notFoundError(msgGroupNotFound)
	}
	if group.CreatedBy != caller.ID {
		return authError(msgNotAdmin)
	}

	balances, err := l.balancesFor(ctx, group)
	if err != nil {
		return err
	}
	if !balances.Settled() {
		return validationError(msgUnsettledDelete)
	}

	if err := l.store.DeleteGroup(ctx, group.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFoundError(msgGroupNotFound)
		}
		return err
	}

	l.logger.InfoContext(ctx, "Deleted group", "group_id", group.ID, "user_id", caller.ID)
	l.publish(ctx, events.Event{Type: events.GroupDeleted, GroupID: group.ID, ActorID: caller.ID})
	return nil
}

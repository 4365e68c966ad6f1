package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
)

type Service struct {
	groupRepo GroupRepository
}

func NewService(groupRepo GroupRepository) *Service {
	return &Service{groupRepo: groupRepo}
}

const (
	maxGroupNameLength = 100
	maxGroupsPerAdmin  = 2
)

type CreateGroupRequest struct {
	Name         string
	Description  string
	AdminMessage string
}

// CreateGroup makes actor the admin and first member of a new group.
func (svc *Service) CreateGroup(ctx context.Context, actor auth.Actor, req CreateGroupRequest) (*Group, error) {
	err := auth.RequireUser(actor, "create a group")
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxGroupNameLength {
		return nil, &InvalidGroupError{Reason: "name must be between 1 and 100 characters"}
	}

	slug := contents.Slugify(name)
	if slug == "" {
		return nil, &InvalidGroupError{Reason: "name must contain letters or digits"}
	}

	count, err := svc.groupRepo.CountByAdmin(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count administered groups: %w", err)
	}

	if count >= maxGroupsPerAdmin {
		return nil, &GroupLimitReachedError{UserID: actor.UserID, Limit: maxGroupsPerAdmin}
	}

	timeNow := time.Now().UTC()

	group := &Group{
		ID:           uuid.NewString(),
		Name:         name,
		Slug:         slug,
		Description:  req.Description,
		AdminID:      actor.UserID,
		AdminMessage: req.AdminMessage,
		CreatedAt:    timeNow,
		UpdatedAt:    timeNow,
	}

	err = svc.groupRepo.Insert(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}

	return group, nil
}

func (svc *Service) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	group, err := svc.groupRepo.Find(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	return group, nil
}

func (svc *Service) GetGroupBySlug(ctx context.Context, slug string) (*Group, error) {
	group, err := svc.groupRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	return group, nil
}

type UpdateGroupRequest struct {
	GroupID      string
	Description  string
	AdminMessage string
}

// UpdateGroup changes the group's description and admin message. Only the admin may do it.
func (svc *Service) UpdateGroup(ctx context.Context, actor auth.Actor, req UpdateGroupRequest) (*Group, error) {
	err := auth.RequireUser(actor, "update a group")
	if err != nil {
		return nil, err
	}

	group, err := svc.groupRepo.Find(ctx, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	if !actor.Owns(group.AdminID) {
		return nil, &PermissionDeniedError{UserID: actor.UserID, GroupID: group.ID, Action: "update the group"}
	}

	group.Description = req.Description
	group.AdminMessage = req.AdminMessage
	group.UpdatedAt = time.Now().UTC()

	err = svc.groupRepo.Update(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return group, nil
}

func (svc *Service) ListGroups(ctx context.Context, params ListGroupsParams) ([]*Group, error) {
	groups, err := svc.groupRepo.List(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, nil
}

func (svc *Service) ListMembers(ctx context.Context, groupID string) ([]*Member, error) {
	members, err := svc.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

// JoinGroup adds actor to the group. It returns true when actor was already a member.
func (svc *Service) JoinGroup(ctx context.Context, actor auth.Actor, groupID string) (bool, error) {
	err := auth.RequireUser(actor, "join a group")
	if err != nil {
		return false, err
	}

	_, err = svc.groupRepo.Find(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to find group: %w", err)
	}

	err = svc.groupRepo.AddMember(ctx, &Member{
		GroupID:  groupID,
		UserID:   actor.UserID,
		JoinedAt: time.Now().UTC(),
	})
	if err != nil {
		var alreadyExistsErr *MemberAlreadyExistsError
		if errors.As(err, &alreadyExistsErr) {
			return true, nil
		}

		return false, fmt.Errorf("failed to add member: %w", err)
	}

	return false, nil
}

func (svc *Service) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	isMember, err := svc.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return isMember, nil
}

func (svc *Service) RemoveMember(ctx context.Context, actor auth.Actor, groupID, userID string) error {
	err := auth.RequireUser(actor, "remove a group member")
	if err != nil {
		return err
	}

	group, err := svc.groupRepo.Find(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to find group: %w", err)
	}

	if !actor.Owns(group.AdminID) {
		return &PermissionDeniedError{UserID: actor.UserID, GroupID: groupID, Action: "remove members"}
	}

	if userID == group.AdminID {
		return &InvalidGroupError{Reason: "the admin cannot be removed from the group"}
	}

	err = svc.groupRepo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

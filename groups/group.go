package groups

import (
	"context"
	"fmt"
	"time"
)

type Group struct {
	ID           string
	Name         string
	Slug         string
	Description  string
	AdminID      string
	AdminMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Member struct {
	GroupID  string
	UserID   string
	JoinedAt time.Time
}

type GroupRepository interface {
	// Insert stores the group together with its admin's membership.
	Insert(ctx context.Context, group *Group) (err error)
	Find(ctx context.Context, groupID string) (group *Group, err error)
	FindBySlug(ctx context.Context, slug string) (group *Group, err error)
	Update(ctx context.Context, group *Group) (err error)
	List(ctx context.Context, params *ListGroupsParams) (groups []*Group, err error)
	CountByAdmin(ctx context.Context, adminID string) (count int, err error)
	AddMember(ctx context.Context, member *Member) (err error)
	RemoveMember(ctx context.Context, groupID, userID string) (err error)
	IsMember(ctx context.Context, groupID, userID string) (isMember bool, err error)
	ListMembers(ctx context.Context, groupID string) (members []*Member, err error)
}

type ListGroupsParams struct {
	// NameContains filters groups by a case-insensitive substring of their name.
	NameContains string
	// MemberID keeps only groups the user belongs to.
	MemberID string
}

type GroupNotFoundError struct {
	ID   string
	Slug string
}

func (err GroupNotFoundError) Error() string {
	if err.Slug != "" {
		return fmt.Sprintf("group with slug %q not found", err.Slug)
	}

	return fmt.Sprintf("group with id %q not found", err.ID)
}

type GroupAlreadyExistsError struct {
	Name string
}

func (err GroupAlreadyExistsError) Error() string {
	return fmt.Sprintf("group %q already exists", err.Name)
}

type MemberAlreadyExistsError struct {
	GroupID string
	UserID  string
}

func (err MemberAlreadyExistsError) Error() string {
	return fmt.Sprintf("user %q is already a member of group %q", err.UserID, err.GroupID)
}

type MemberNotFoundError struct {
	GroupID string
	UserID  string
}

func (err MemberNotFoundError) Error() string {
	return fmt.Sprintf("user %q is not a member of group %q", err.UserID, err.GroupID)
}

type InvalidGroupError struct {
	Reason string
}

func (err InvalidGroupError) Error() string {
	return "invalid group: " + err.Reason
}

type PermissionDeniedError struct {
	UserID  string
	GroupID string
	Action  string
}

func (err PermissionDeniedError) Error() string {
	return fmt.Sprintf("user %q is not allowed to %s in group %q", err.UserID, err.Action, err.GroupID)
}

type GroupLimitReachedError struct {
	UserID string
	Limit  int
}

func (err GroupLimitReachedError) Error() string {
	return fmt.Sprintf("user %q already administers %d groups", err.UserID, err.Limit)
}

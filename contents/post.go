package contents

import (
	"context"
	"fmt"
	"time"
)

type PostStatus int

const (
	PostStatusBlocked  PostStatus = 0
	PostStatusApproved PostStatus = 1
)

type Post struct {
	ID         string
	Slug       string
	Title      string
	Blurb      string
	Content    string
	Status     PostStatus
	AuthorID   string
	CategoryID string
	GroupID    *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PostRepository interface {
	Insert(ctx context.Context, post *Post) (err error)
	Find(ctx context.Context, postID string) (post *Post, err error)
	FindBySlug(ctx context.Context, slug string) (post *Post, err error)
	List(ctx context.Context, params *ListPostsParams) (posts []*Post, err error)
	SlugExists(ctx context.Context, slug string) (exists bool, err error)
	Update(ctx context.Context, post *Post) (err error)
	Delete(ctx context.Context, postID string) (err error)
}

type ListPostsParams struct {
	Status     *PostStatus
	CategoryID string
	GroupID    string
	AuthorID   string
	Limit      uint64
	Offset     uint64
}

type PostNotFoundError struct {
	ID   string
	Slug string
}

func (err PostNotFoundError) Error() string {
	if err.Slug != "" {
		return fmt.Sprintf("post with slug %q not found", err.Slug)
	}

	return fmt.Sprintf("post with id %q not found", err.ID)
}

type PostSlugTakenError struct {
	Slug string
}

func (err PostSlugTakenError) Error() string {
	return fmt.Sprintf("post slug %q is already taken", err.Slug)
}

type InvalidPostError struct {
	Reason string
}

func (err InvalidPostError) Error() string {
	return "invalid post: " + err.Reason
}

type PermissionDeniedError struct {
	UserID string
	PostID string
	Action string
}

func (err PermissionDeniedError) Error() string {
	return fmt.Sprintf("user %q is not allowed to %s post %q", err.UserID, err.Action, err.PostID)
}

package discuss

import (
	"context"
	"fmt"
	"time"
)

type ThreadKind string

const (
	ThreadKindPost  ThreadKind = "post"
	ThreadKindGroup ThreadKind = "group"
)

func (kind ThreadKind) IsValid() bool {
	switch kind {
	case ThreadKindPost, ThreadKindGroup:
		return true
	default:
		return false
	}
}

// ThreadRef identifies the post or group a comment belongs to.
type ThreadRef struct {
	Kind ThreadKind
	ID   string
}

func PostThread(postID string) ThreadRef {
	return ThreadRef{Kind: ThreadKindPost, ID: postID}
}

func GroupThread(groupID string) ThreadRef {
	return ThreadRef{Kind: ThreadKindGroup, ID: groupID}
}

func (ref ThreadRef) String() string {
	return string(ref.Kind) + ":" + ref.ID
}

func (ref ThreadRef) validate() error {
	if !ref.Kind.IsValid() {
		return &InvalidCommentError{Reason: fmt.Sprintf("invalid thread kind %q", ref.Kind)}
	}

	if ref.ID == "" {
		return &InvalidCommentError{Reason: "thread id is required"}
	}

	return nil
}

// Comment is a node of a thread's comment tree. Left and Right are the nested-set
// bounds of the node and Depth its distance from the root; all three are owned by
// the repository and recomputed whenever the thread changes shape.
type Comment struct {
	ID        string
	AuthorID  string
	Content   string
	ImageURL  *string
	Active    bool
	PostID    *string
	GroupID   *string
	ParentID  *string
	Left      int
	Right     int
	Depth     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (comment *Comment) Thread() ThreadRef {
	if comment.PostID != nil {
		return PostThread(*comment.PostID)
	}

	if comment.GroupID != nil {
		return GroupThread(*comment.GroupID)
	}

	return ThreadRef{}
}

// IsAncestorOf reports whether other sits inside comment's subtree.
func (comment *Comment) IsAncestorOf(other *Comment) bool {
	return comment.Thread() == other.Thread() &&
		comment.Left < other.Left &&
		other.Right < comment.Right
}

type CommentOrder int

const (
	// OrderCreated sorts by creation time, oldest first.
	OrderCreated CommentOrder = iota
	// OrderTree sorts depth-first, the order a threaded view renders in.
	OrderTree
)

type ListCommentsParams struct {
	Thread     ThreadRef
	AuthorID   string
	ActiveOnly bool
	Order      CommentOrder
}

type CommentRepository interface {
	Find(ctx context.Context, commentID string) (comment *Comment, err error)
	// Insert stores comment and renumbers its thread in the same transaction.
	Insert(ctx context.Context, comment *Comment) (err error)
	Update(ctx context.Context, comment *Comment) (err error)
	// Delete removes the comment with its subtree and renumbers the thread in the
	// same transaction.
	Delete(ctx context.Context, commentID string) (err error)
	List(ctx context.Context, params *ListCommentsParams) (comments []*Comment, err error)
	ListDescendants(ctx context.Context, comment *Comment) (comments []*Comment, err error)
	Count(ctx context.Context, params *ListCommentsParams) (count int, err error)
}

// ThreadFinder reports whether a post or group exists.
type ThreadFinder interface {
	ThreadExists(ctx context.Context, thread ThreadRef) (exists bool, err error)
}

type CommentNotFoundError struct {
	ID string
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment with id %q not found", err.ID)
}

type ThreadNotFoundError struct {
	Thread ThreadRef
}

func (err ThreadNotFoundError) Error() string {
	return fmt.Sprintf("%s with id %q not found", err.Thread.Kind, err.Thread.ID)
}

type InvalidCommentError struct {
	Reason string
}

func (err InvalidCommentError) Error() string {
	return "invalid comment: " + err.Reason
}

type PermissionDeniedError struct {
	UserID    string
	CommentID string
	Action    string
}

func (err PermissionDeniedError) Error() string {
	return fmt.Sprintf("user %q is not allowed to %s comment %q", err.UserID, err.Action, err.CommentID)
}

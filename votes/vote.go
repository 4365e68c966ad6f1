package votes

import (
	"context"
	"fmt"
	"time"
)

type TargetType string

const (
	TargetTypePost    TargetType = "post"
	TargetTypeComment TargetType = "comment"
)

func (targetType TargetType) IsValid() bool {
	switch targetType {
	case TargetTypePost, TargetTypeComment:
		return true
	default:
		return false
	}
}

// Target is the post or comment a vote applies to.
type Target struct {
	Type TargetType
	ID   string
}

func PostTarget(postID string) Target {
	return Target{Type: TargetTypePost, ID: postID}
}

func CommentTarget(commentID string) Target {
	return Target{Type: TargetTypeComment, ID: commentID}
}

func (target Target) String() string {
	return string(target.Type) + ":" + target.ID
}

func (target Target) validate() error {
	if !target.Type.IsValid() {
		return &InvalidVoteError{Reason: fmt.Sprintf("invalid target type %q", target.Type)}
	}

	if target.ID == "" {
		return &InvalidVoteError{Reason: "a post or comment is required"}
	}

	return nil
}

type Vote struct {
	ID        string
	UserID    string
	Target    Target
	IsUpvote  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoteState is the outcome of a toggle.
type VoteState string

const (
	VoteStateCreated   VoteState = "created"
	VoteStateFlipped   VoteState = "flipped"
	VoteStateRetracted VoteState = "retracted"
)

// Tally is the vote count of one target, with the direction the viewing user voted
// in, if any.
type Tally struct {
	Target    Target
	Upvotes   int
	Downvotes int
	UserVote  *bool
}

func (tally Tally) Score() int {
	return tally.Upvotes - tally.Downvotes
}

type DirectionCounts struct {
	Upvotes   int
	Downvotes int
}

type VoteRepository interface {
	// Atomically runs fn inside a single transaction. The repository passed to fn is
	// bound to that transaction; fn's error rolls it back.
	Atomically(ctx context.Context, fn func(repo VoteRepository) error) (err error)
	TargetExists(ctx context.Context, target Target) (exists bool, err error)
	FindByUserTarget(ctx context.Context, userID string, target Target) (vote *Vote, err error)
	Insert(ctx context.Context, vote *Vote) (err error)
	UpdateDirection(ctx context.Context, voteID string, isUpvote bool, updatedAt time.Time) (err error)
	Delete(ctx context.Context, voteID string) (err error)
	CountByDirection(ctx context.Context, target Target, isUpvote bool) (count int, err error)
	CountByTargets(ctx context.Context, targetType TargetType, targetIDs []string) (counts map[string]DirectionCounts, err error)
	ListByUserTargets(ctx context.Context, userID string, targetType TargetType, targetIDs []string) (votes map[string]bool, err error)
}

type VoteNotFoundError struct {
	ID     string
	UserID string
	Target Target
}

func (err VoteNotFoundError) Error() string {
	if err.ID != "" {
		return fmt.Sprintf("vote with id %q not found", err.ID)
	}

	return fmt.Sprintf("vote of user %q on %s not found", err.UserID, err.Target)
}

type TargetNotFoundError struct {
	Target Target
}

func (err TargetNotFoundError) Error() string {
	return fmt.Sprintf("%s with id %q not found", err.Target.Type, err.Target.ID)
}

type InvalidVoteError struct {
	Reason string
}

func (err InvalidVoteError) Error() string {
	return "invalid vote: " + err.Reason
}

type AlreadyVotedError struct {
	UserID string
	Target Target
}

func (err AlreadyVotedError) Error() string {
	return fmt.Sprintf("user %q has already voted on %s", err.UserID, err.Target)
}

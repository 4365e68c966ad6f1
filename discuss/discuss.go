package discuss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/posthub/auth"
)

type Service struct {
	commentRepo CommentRepository
	threads     ThreadFinder
}

func NewService(commentRepo CommentRepository, threads ThreadFinder) *Service {
	return &Service{
		commentRepo: commentRepo,
		threads:     threads,
	}
}

const maxCommentLength = 10000

type CreateCommentRequest struct {
	Thread   ThreadRef
	ParentID string
	Content  string
	ImageURL string
}

func validateContent(content string) error {
	switch {
	case strings.TrimSpace(content) == "":
		return &InvalidCommentError{Reason: "content is required"}
	case len(content) > maxCommentLength:
		return &InvalidCommentError{Reason: "content is too long"}
	}

	return nil
}

// CreateComment adds a comment to a post or group thread, optionally as a reply to
// an existing comment of the same thread.
func (svc *Service) CreateComment(ctx context.Context, actor auth.Actor, req CreateCommentRequest) (*Comment, error) {
	err := auth.RequireUser(actor, "comment")
	if err != nil {
		return nil, err
	}

	err = req.Thread.validate()
	if err != nil {
		return nil, err
	}

	err = validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	exists, err := svc.threads.ThreadExists(ctx, req.Thread)
	if err != nil {
		return nil, fmt.Errorf("failed to check thread: %w", err)
	}

	if !exists {
		return nil, &ThreadNotFoundError{Thread: req.Thread}
	}

	var parentID *string

	if req.ParentID != "" {
		parent, err := svc.commentRepo.Find(ctx, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to find parent comment: %w", err)
		}

		if parent.Thread() != req.Thread {
			return nil, &InvalidCommentError{Reason: "parent comment belongs to another thread"}
		}

		parentID = &parent.ID
	}

	timeNow := time.Now().UTC()

	comment := &Comment{
		ID:        uuid.Must(uuid.NewV7()).String(),
		AuthorID:  actor.UserID,
		Content:   req.Content,
		ImageURL:  nil,
		Active:    true,
		PostID:    nil,
		GroupID:   nil,
		ParentID:  parentID,
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	if req.ImageURL != "" {
		comment.ImageURL = &req.ImageURL
	}

	threadID := req.Thread.ID

	switch req.Thread.Kind {
	case ThreadKindPost:
		comment.PostID = &threadID
	case ThreadKindGroup:
		comment.GroupID = &threadID
	}

	err = svc.commentRepo.Insert(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	return comment, nil
}

func (svc *Service) GetComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return comment, nil
}

// Descendants returns every comment below commentID, oldest first.
func (svc *Service) Descendants(ctx context.Context, commentID string) ([]*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	comments, err := svc.commentRepo.ListDescendants(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to list descendants: %w", err)
	}

	return comments, nil
}

// ListComments returns every comment of the thread, oldest first.
func (svc *Service) ListComments(ctx context.Context, thread ThreadRef) ([]*Comment, error) {
	err := thread.validate()
	if err != nil {
		return nil, err
	}

	comments, err := svc.commentRepo.List(ctx, &ListCommentsParams{
		Thread:     thread,
		ActiveOnly: false,
		Order:      OrderCreated,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// ListThread returns the thread in depth-first order, ready to be rendered with
// Depth as indentation. A hidden comment and everything below it are left out,
// unless actor may moderate the hidden comment.
func (svc *Service) ListThread(ctx context.Context, actor auth.Actor, thread ThreadRef) ([]*Comment, error) {
	err := thread.validate()
	if err != nil {
		return nil, err
	}

	comments, err := svc.commentRepo.List(ctx, &ListCommentsParams{
		Thread:     thread,
		ActiveOnly: false,
		Order:      OrderTree,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return visibleTo(actor, comments), nil
}

// visibleTo filters comments listed in tree order.
func visibleTo(actor auth.Actor, comments []*Comment) []*Comment {
	visible := make([]*Comment, 0, len(comments))
	skipUntil := 0

	for _, comment := range comments {
		if comment.Left < skipUntil {
			continue
		}

		if !comment.Active && !actor.CanModerate(comment.AuthorID) {
			skipUntil = comment.Right

			continue
		}

		visible = append(visible, comment)
	}

	return visible
}

func (svc *Service) ListUserComments(ctx context.Context, userID string) ([]*Comment, error) {
	comments, err := svc.commentRepo.List(ctx, &ListCommentsParams{
		AuthorID: userID,
		Order:    OrderCreated,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (svc *Service) CountComments(ctx context.Context, thread ThreadRef) (int, error) {
	err := thread.validate()
	if err != nil {
		return 0, err
	}

	count, err := svc.commentRepo.Count(ctx, &ListCommentsParams{Thread: thread, ActiveOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}

type EditCommentRequest struct {
	CommentID string
	// Content replaces the text when set.
	Content *string
	// ImageURL replaces the attached image when set.
	ImageURL    *string
	RemoveImage bool
}

// EditComment changes the text or image of a comment. Only the author may edit.
func (svc *Service) EditComment(ctx context.Context, actor auth.Actor, req EditCommentRequest) (*Comment, error) {
	err := auth.RequireUser(actor, "edit a comment")
	if err != nil {
		return nil, err
	}

	if req.ImageURL != nil && req.RemoveImage {
		return nil, &InvalidCommentError{Reason: "cannot replace and remove the image at once"}
	}

	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) == "" {
		return nil, &InvalidCommentError{Reason: "image url is empty, use RemoveImage to drop the image"}
	}

	if req.Content != nil {
		err = validateContent(*req.Content)
		if err != nil {
			return nil, err
		}
	}

	comment, err := svc.commentRepo.Find(ctx, req.CommentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	if !actor.Owns(comment.AuthorID) {
		return nil, &PermissionDeniedError{UserID: actor.UserID, CommentID: comment.ID, Action: "edit"}
	}

	if req.Content != nil {
		comment.Content = *req.Content
	}

	switch {
	case req.ImageURL != nil:
		imageURL := *req.ImageURL
		comment.ImageURL = &imageURL
	case req.RemoveImage:
		comment.ImageURL = nil
	}

	comment.UpdatedAt = time.Now().UTC()

	err = svc.commentRepo.Update(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// DeleteComment removes a comment and its replies. The author or a superuser may delete.
func (svc *Service) DeleteComment(ctx context.Context, actor auth.Actor, commentID string) error {
	err := auth.RequireUser(actor, "delete a comment")
	if err != nil {
		return err
	}

	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if !actor.CanModerate(comment.AuthorID) {
		return &PermissionDeniedError{UserID: actor.UserID, CommentID: comment.ID, Action: "delete"}
	}

	err = svc.commentRepo.Delete(ctx, comment.ID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

// SetCommentActive hides or shows a comment without touching the tree.
func (svc *Service) SetCommentActive(ctx context.Context, actor auth.Actor, commentID string, active bool) (*Comment, error) {
	err := auth.RequireUser(actor, "change comment visibility")
	if err != nil {
		return nil, err
	}

	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	if !actor.CanModerate(comment.AuthorID) {
		return nil, &PermissionDeniedError{UserID: actor.UserID, CommentID: comment.ID, Action: "hide"}
	}

	if comment.Active == active {
		return comment, nil
	}

	comment.Active = active
	comment.UpdatedAt = time.Now().UTC()

	err = svc.commentRepo.Update(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

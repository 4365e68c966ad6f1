package web

import (
	"context"
	"fmt"

	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/nasermirzaei89/posthub/votes"
)

type PostCard struct {
	*contents.Post

	Author        *auth.User
	CommentsCount int
	Tally         *votes.Tally
	CanDelete     bool
}

type CommentView struct {
	*discuss.Comment

	Author    *auth.User
	Tally     *votes.Tally
	CanEdit   bool
	CanDelete bool
}

// userCache avoids loading the same author twice while building one page.
type userCache struct {
	authSvc *auth.Service
	users   map[string]*auth.User
}

func (h *Handler) newUserCache() *userCache {
	return &userCache{authSvc: h.authSvc, users: make(map[string]*auth.User)}
}

func (c *userCache) get(ctx context.Context, userID string) (*auth.User, error) {
	if user, ok := c.users[userID]; ok {
		return user, nil
	}

	user, err := c.authSvc.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	c.users[userID] = user

	return user, nil
}

func (h *Handler) postCards(ctx context.Context, actor auth.Actor, posts []*contents.Post) ([]*PostCard, error) {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	tallies, err := h.votesSvc.Tallies(ctx, votes.TargetTypePost, ids, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	users := h.newUserCache()
	cards := make([]*PostCard, 0, len(posts))

	for _, post := range posts {
		author, err := users.get(ctx, post.AuthorID)
		if err != nil {
			return nil, err
		}

		commentsCount, err := h.discussSvc.CountComments(ctx, discuss.PostThread(post.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to count comments: %w", err)
		}

		cards = append(cards, &PostCard{
			Post:          post,
			Author:        author,
			CommentsCount: commentsCount,
			Tally:         tallies[post.ID],
			CanDelete:     actor.CanModerate(post.AuthorID),
		})
	}

	return cards, nil
}

// commentViews loads the comments of a thread actor may see, in tree order.
func (h *Handler) commentViews(ctx context.Context, actor auth.Actor, thread discuss.ThreadRef) ([]*CommentView, error) {
	comments, err := h.discussSvc.ListThread(ctx, actor, thread)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	ids := make([]string, 0, len(comments))
	for _, comment := range comments {
		ids = append(ids, comment.ID)
	}

	tallies, err := h.votesSvc.Tallies(ctx, votes.TargetTypeComment, ids, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	users := h.newUserCache()
	views := make([]*CommentView, 0, len(comments))

	for _, comment := range comments {
		author, err := users.get(ctx, comment.AuthorID)
		if err != nil {
			return nil, err
		}

		views = append(views, &CommentView{
			Comment:   comment,
			Author:    author,
			Tally:     tallies[comment.ID],
			CanEdit:   actor.Owns(comment.AuthorID),
			CanDelete: actor.CanModerate(comment.AuthorID),
		})
	}

	return views, nil
}

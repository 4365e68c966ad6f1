package contents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/posthub/auth"
)

type Service struct {
	postRepo     PostRepository
	categoryRepo CategoryRepository
}

func NewService(postRepo PostRepository, categoryRepo CategoryRepository) *Service {
	return &Service{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
	}
}

const (
	maxTitleLength        = 100
	maxCategoryNameLength = 50
	fallbackPostSlug      = "post"
	maxSlugAttempts       = 100
)

func (svc *Service) CreateCategory(ctx context.Context, actor auth.Actor, name string) (*Category, error) {
	err := auth.RequireUser(actor, "create a category")
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxCategoryNameLength {
		return nil, &InvalidPostError{Reason: "category name must be between 1 and 50 characters"}
	}

	existing, err := svc.categoryRepo.FindByName(ctx, name)
	if err == nil {
		return nil, &CategoryAlreadyExistsError{Name: name, Existing: existing}
	}

	var notFoundErr *CategoryNotFoundError
	if !errors.As(err, &notFoundErr) {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}

	category := &Category{
		ID:   uuid.NewString(),
		Name: name,
		Slug: Slugify(name),
	}

	err = svc.categoryRepo.Insert(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	return category, nil
}

func (svc *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	categories, err := svc.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}

type CreatePostRequest struct {
	Title      string
	Blurb      string
	Content    string
	CategoryID string
	GroupID    string
}

func (req CreatePostRequest) validate() error {
	return validatePostFields(req.Title, req.Content, req.CategoryID)
}

func validatePostFields(title, content, categoryID string) error {
	switch {
	case strings.TrimSpace(title) == "":
		return &InvalidPostError{Reason: "title is required"}
	case len(title) > maxTitleLength:
		return &InvalidPostError{Reason: "title is too long"}
	case strings.TrimSpace(content) == "":
		return &InvalidPostError{Reason: "content is required"}
	case categoryID == "":
		return &InvalidPostError{Reason: "category is required"}
	}

	return nil
}

func (svc *Service) CreatePost(ctx context.Context, actor auth.Actor, req CreatePostRequest) (*Post, error) {
	err := auth.RequireUser(actor, "create a post")
	if err != nil {
		return nil, err
	}

	err = req.validate()
	if err != nil {
		return nil, err
	}

	_, err = svc.categoryRepo.Find(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	slug, err := svc.uniquePostSlug(ctx, req.Title)
	if err != nil {
		return nil, err
	}

	var groupID *string
	if req.GroupID != "" {
		groupID = &req.GroupID
	}

	timeNow := time.Now().UTC()

	post := &Post{
		ID:         uuid.NewString(),
		Slug:       slug,
		Title:      strings.TrimSpace(req.Title),
		Blurb:      req.Blurb,
		Content:    req.Content,
		Status:     PostStatusApproved,
		AuthorID:   actor.UserID,
		CategoryID: req.CategoryID,
		GroupID:    groupID,
		CreatedAt:  timeNow,
		UpdatedAt:  timeNow,
	}

	err = svc.postRepo.Insert(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

type UpdatePostRequest struct {
	PostID     string
	Title      string
	Blurb      string
	Content    string
	CategoryID string
}

// UpdatePost rewrites the text and category of a post. Only the author may edit.
// The slug is kept so existing links keep working after a title change.
func (svc *Service) UpdatePost(ctx context.Context, actor auth.Actor, req UpdatePostRequest) (*Post, error) {
	err := auth.RequireUser(actor, "edit a post")
	if err != nil {
		return nil, err
	}

	err = validatePostFields(req.Title, req.Content, req.CategoryID)
	if err != nil {
		return nil, err
	}

	post, err := svc.postRepo.Find(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	if !actor.Owns(post.AuthorID) {
		return nil, &PermissionDeniedError{UserID: actor.UserID, PostID: post.ID, Action: "edit"}
	}

	_, err = svc.categoryRepo.Find(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Blurb = req.Blurb
	post.Content = req.Content
	post.CategoryID = req.CategoryID
	post.UpdatedAt = time.Now().UTC()

	err = svc.postRepo.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

func (svc *Service) uniquePostSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = fallbackPostSlug
	}

	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := suffixedSlug(base, n)

		exists, err := svc.postRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}

		if !exists {
			return candidate, nil
		}
	}

	return "", &PostSlugTakenError{Slug: base}
}

func (svc *Service) GetPost(ctx context.Context, postID string) (*Post, error) {
	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

func (svc *Service) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	post, err := svc.postRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

func (svc *Service) ListPosts(ctx context.Context, params ListPostsParams) ([]*Post, error) {
	if params.Status == nil {
		approved := PostStatusApproved
		params.Status = &approved
	}

	posts, err := svc.postRepo.List(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// DeletePost removes the post with its comments and votes.
func (svc *Service) DeletePost(ctx context.Context, actor auth.Actor, postID string) error {
	err := auth.RequireUser(actor, "delete a post")
	if err != nil {
		return err
	}

	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}

	if !actor.CanModerate(post.AuthorID) {
		return &PermissionDeniedError{UserID: actor.UserID, PostID: postID, Action: "delete"}
	}

	err = svc.postRepo.Delete(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

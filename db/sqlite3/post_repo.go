package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/posthub/contents"
)

const tablePosts = "posts"

type PostRepository struct {
	db *sql.DB
}

var _ contents.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const (
	postFieldID         = "id"
	postFieldSlug       = "slug"
	postFieldTitle      = "title"
	postFieldBlurb      = "blurb"
	postFieldContent    = "content"
	postFieldStatus     = "status"
	postFieldAuthorID   = "author_id"
	postFieldCategoryID = "category_id"
	postFieldGroupID    = "group_id"
	postFieldCreatedAt  = "created_at"
	postFieldUpdatedAt  = "updated_at"
)

func postColumns() []string {
	return []string{
		postFieldID,
		postFieldSlug,
		postFieldTitle,
		postFieldBlurb,
		postFieldContent,
		postFieldStatus,
		postFieldAuthorID,
		postFieldCategoryID,
		postFieldGroupID,
		postFieldCreatedAt,
		postFieldUpdatedAt,
	}
}

func scanPost(row sq.RowScanner) (*contents.Post, error) {
	var post contents.Post

	err := row.Scan(
		&post.ID,
		&post.Slug,
		&post.Title,
		&post.Blurb,
		&post.Content,
		&post.Status,
		&post.AuthorID,
		&post.CategoryID,
		&post.GroupID,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &post, nil
}

func (repo *PostRepository) Insert(ctx context.Context, post *contents.Post) error {
	q := sq.Insert(tablePosts).
		Columns(postColumns()...).
		Values(
			post.ID,
			post.Slug,
			post.Title,
			post.Blurb,
			post.Content,
			post.Status,
			post.AuthorID,
			post.CategoryID,
			post.GroupID,
			post.CreatedAt,
			post.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err, tablePosts) {
			return &contents.PostSlugTakenError{Slug: post.Slug}
		}

		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *PostRepository) find(ctx context.Context, where sq.Eq) (*contents.Post, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		Where(where)

	q = q.RunWith(repo.db)

	return scanPost(q.QueryRowContext(ctx))
}

func (repo *PostRepository) Find(ctx context.Context, postID string) (*contents.Post, error) {
	post, err := repo.find(ctx, sq.Eq{postFieldID: postID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.PostNotFoundError{ID: postID}
		}

		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	return post, nil
}

func (repo *PostRepository) FindBySlug(ctx context.Context, slug string) (*contents.Post, error) {
	post, err := repo.find(ctx, sq.Eq{postFieldSlug: slug})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.PostNotFoundError{Slug: slug}
		}

		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	return post, nil
}

func (repo *PostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int

	err := sq.Select("COUNT(*)").
		From(tablePosts).
		Where(sq.Eq{postFieldSlug: slug}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count slugs: %w", err)
	}

	return count > 0, nil
}

func (repo *PostRepository) List(ctx context.Context, params *contents.ListPostsParams) ([]*contents.Post, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		OrderBy(postFieldCreatedAt+" DESC", postFieldID+" DESC")

	if params.Status != nil {
		q = q.Where(sq.Eq{postFieldStatus: *params.Status})
	}

	if params.CategoryID != "" {
		q = q.Where(sq.Eq{postFieldCategoryID: params.CategoryID})
	}

	if params.GroupID != "" {
		q = q.Where(sq.Eq{postFieldGroupID: params.GroupID})
	}

	if params.AuthorID != "" {
		q = q.Where(sq.Eq{postFieldAuthorID: params.AuthorID})
	}

	if params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	posts := make([]*contents.Post, 0)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		posts = append(posts, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return posts, nil
}

// Update writes the editable fields of the post. The slug, author and group stay as
// they were created.
func (repo *PostRepository) Update(ctx context.Context, post *contents.Post) error {
	result, err := sq.Update(tablePosts).
		Set(postFieldTitle, post.Title).
		Set(postFieldBlurb, post.Blurb).
		Set(postFieldContent, post.Content).
		Set(postFieldStatus, post.Status).
		Set(postFieldCategoryID, post.CategoryID).
		Set(postFieldUpdatedAt, post.UpdatedAt).
		Where(sq.Eq{postFieldID: post.ID}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	return requireAffected(result, &contents.PostNotFoundError{ID: post.ID})
}

func (repo *PostRepository) Delete(ctx context.Context, postID string) error {
	result, err := sq.Delete(tablePosts).
		Where(sq.Eq{postFieldID: postID}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &contents.PostNotFoundError{ID: postID}
	}

	return nil
}

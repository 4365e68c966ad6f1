package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/posthub/discuss"
)

const tableComments = "comments"

type CommentRepository struct {
	db *sql.DB
}

var _ discuss.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const (
	commentFieldID        = "id"
	commentFieldAuthorID  = "author_id"
	commentFieldContent   = "content"
	commentFieldImageURL  = "image_url"
	commentFieldActive    = "active"
	commentFieldPostID    = "post_id"
	commentFieldGroupID   = "group_id"
	commentFieldParentID  = "parent_id"
	commentFieldLeft      = "tree_left"
	commentFieldRight     = "tree_right"
	commentFieldDepth     = "depth"
	commentFieldCreatedAt = "created_at"
	commentFieldUpdatedAt = "updated_at"
)

func commentColumns() []string {
	return []string{
		commentFieldID,
		commentFieldAuthorID,
		commentFieldContent,
		commentFieldImageURL,
		commentFieldActive,
		commentFieldPostID,
		commentFieldGroupID,
		commentFieldParentID,
		commentFieldLeft,
		commentFieldRight,
		commentFieldDepth,
		commentFieldCreatedAt,
		commentFieldUpdatedAt,
	}
}

func scanComment(row sq.RowScanner) (*discuss.Comment, error) {
	var comment discuss.Comment

	err := row.Scan(
		&comment.ID,
		&comment.AuthorID,
		&comment.Content,
		&comment.ImageURL,
		&comment.Active,
		&comment.PostID,
		&comment.GroupID,
		&comment.ParentID,
		&comment.Left,
		&comment.Right,
		&comment.Depth,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &comment, nil
}

func threadEq(thread discuss.ThreadRef) sq.Eq {
	if thread.Kind == discuss.ThreadKindGroup {
		return sq.Eq{commentFieldGroupID: thread.ID}
	}

	return sq.Eq{commentFieldPostID: thread.ID}
}

func queryComments(ctx context.Context, db runner, q sq.SelectBuilder) ([]*discuss.Comment, error) {
	rows, err := q.RunWith(db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	comments := make([]*discuss.Comment, 0)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}

		comments = append(comments, comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return comments, nil
}

func findComment(ctx context.Context, db runner, commentID string) (*discuss.Comment, error) {
	q := sq.Select(commentColumns()...).
		From(tableComments).
		Where(sq.Eq{commentFieldID: commentID}).
		RunWith(db)

	comment, err := scanComment(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &discuss.CommentNotFoundError{ID: commentID}
		}

		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	return comment, nil
}

type treeBounds struct {
	left, right, depth int
}

// renumberThread rebuilds the nested-set index of a whole thread and writes back the
// rows whose bounds moved. It returns the renumbered comments by id.
func renumberThread(ctx context.Context, tx *sql.Tx, thread discuss.ThreadRef) (map[string]*discuss.Comment, error) {
	comments, err := queryComments(ctx, tx, sq.Select(commentColumns()...).
		From(tableComments).
		Where(threadEq(thread)))
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	previous := make(map[string]treeBounds, len(comments))
	for _, comment := range comments {
		previous[comment.ID] = treeBounds{comment.Left, comment.Right, comment.Depth}
	}

	discuss.NumberThread(comments)

	byID := make(map[string]*discuss.Comment, len(comments))

	for _, comment := range comments {
		byID[comment.ID] = comment

		if previous[comment.ID] == (treeBounds{comment.Left, comment.Right, comment.Depth}) {
			continue
		}

		_, err = sq.Update(tableComments).
			Set(commentFieldLeft, comment.Left).
			Set(commentFieldRight, comment.Right).
			Set(commentFieldDepth, comment.Depth).
			Where(sq.Eq{commentFieldID: comment.ID}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to update tree bounds: %w", err)
		}
	}

	return byID, nil
}

func (repo *CommentRepository) Insert(ctx context.Context, comment *discuss.Comment) error {
	return withTx(ctx, repo.db, func(tx *sql.Tx) error {
		_, err := sq.Insert(tableComments).
			Columns(commentColumns()...).
			Values(
				comment.ID,
				comment.AuthorID,
				comment.Content,
				comment.ImageURL,
				comment.Active,
				comment.PostID,
				comment.GroupID,
				comment.ParentID,
				comment.Left,
				comment.Right,
				comment.Depth,
				comment.CreatedAt,
				comment.UpdatedAt,
			).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec insert: %w", err)
		}

		numbered, err := renumberThread(ctx, tx, comment.Thread())
		if err != nil {
			return fmt.Errorf("failed to renumber thread: %w", err)
		}

		if inserted, ok := numbered[comment.ID]; ok {
			comment.Left = inserted.Left
			comment.Right = inserted.Right
			comment.Depth = inserted.Depth
		}

		return nil
	})
}

func (repo *CommentRepository) Find(ctx context.Context, commentID string) (*discuss.Comment, error) {
	return findComment(ctx, repo.db, commentID)
}

func (repo *CommentRepository) Update(ctx context.Context, comment *discuss.Comment) error {
	result, err := sq.Update(tableComments).
		Set(commentFieldContent, comment.Content).
		Set(commentFieldImageURL, comment.ImageURL).
		Set(commentFieldActive, comment.Active).
		Set(commentFieldUpdatedAt, comment.UpdatedAt).
		Where(sq.Eq{commentFieldID: comment.ID}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &discuss.CommentNotFoundError{ID: comment.ID}
	}

	return nil
}

func (repo *CommentRepository) Delete(ctx context.Context, commentID string) error {
	return withTx(ctx, repo.db, func(tx *sql.Tx) error {
		comment, err := findComment(ctx, tx, commentID)
		if err != nil {
			return err
		}

		thread := comment.Thread()

		_, err = sq.Delete(tableComments).
			Where(threadEq(thread)).
			Where(sq.GtOrEq{commentFieldLeft: comment.Left}).
			Where(sq.LtOrEq{commentFieldRight: comment.Right}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec delete: %w", err)
		}

		_, err = renumberThread(ctx, tx, thread)
		if err != nil {
			return fmt.Errorf("failed to renumber thread: %w", err)
		}

		return nil
	})
}

func commentFilters(q sq.SelectBuilder, params *discuss.ListCommentsParams) sq.SelectBuilder {
	if params.Thread.ID != "" {
		q = q.Where(threadEq(params.Thread))
	}

	if params.AuthorID != "" {
		q = q.Where(sq.Eq{commentFieldAuthorID: params.AuthorID})
	}

	if params.ActiveOnly {
		q = q.Where(sq.Eq{commentFieldActive: true})
	}

	return q
}

func (repo *CommentRepository) List(ctx context.Context, params *discuss.ListCommentsParams) ([]*discuss.Comment, error) {
	q := commentFilters(sq.Select(commentColumns()...).From(tableComments), params)

	switch params.Order {
	case discuss.OrderTree:
		q = q.OrderBy(commentFieldLeft)
	default:
		q = q.OrderBy(commentFieldCreatedAt, commentFieldID)
	}

	return queryComments(ctx, repo.db, q)
}

func (repo *CommentRepository) ListDescendants(ctx context.Context, comment *discuss.Comment) ([]*discuss.Comment, error) {
	q := sq.Select(commentColumns()...).
		From(tableComments).
		Where(threadEq(comment.Thread())).
		Where(sq.Gt{commentFieldLeft: comment.Left}).
		Where(sq.Lt{commentFieldRight: comment.Right}).
		OrderBy(commentFieldCreatedAt, commentFieldID)

	return queryComments(ctx, repo.db, q)
}

func (repo *CommentRepository) Count(ctx context.Context, params *discuss.ListCommentsParams) (int, error) {
	var count int

	err := commentFilters(sq.Select("COUNT(*)").From(tableComments), params).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}

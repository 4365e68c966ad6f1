package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/posthub/votes"
)

const tableVotes = "votes"

// VoteRepository stores votes. A repository handed out by Atomically runs every query
// on the transaction instead of the pool.
type VoteRepository struct {
	db   *sql.DB
	run  runner
	inTx bool
}

var _ votes.VoteRepository = (*VoteRepository)(nil)

func NewVoteRepository(db *sql.DB) *VoteRepository {
	return &VoteRepository{db: db, run: db, inTx: false}
}

const (
	voteFieldID        = "id"
	voteFieldUserID    = "user_id"
	voteFieldPostID    = "post_id"
	voteFieldCommentID = "comment_id"
	voteFieldIsUpvote  = "is_upvote"
	voteFieldCreatedAt = "created_at"
	voteFieldUpdatedAt = "updated_at"
)

func voteColumns() []string {
	return []string{
		voteFieldID,
		voteFieldUserID,
		voteFieldPostID,
		voteFieldCommentID,
		voteFieldIsUpvote,
		voteFieldCreatedAt,
		voteFieldUpdatedAt,
	}
}

func scanVote(row sq.RowScanner) (*votes.Vote, error) {
	var (
		vote      votes.Vote
		postID    sql.NullString
		commentID sql.NullString
	)

	err := row.Scan(
		&vote.ID,
		&vote.UserID,
		&postID,
		&commentID,
		&vote.IsUpvote,
		&vote.CreatedAt,
		&vote.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	switch {
	case postID.Valid:
		vote.Target = votes.PostTarget(postID.String)
	case commentID.Valid:
		vote.Target = votes.CommentTarget(commentID.String)
	}

	return &vote, nil
}

func voteTargetField(targetType votes.TargetType) string {
	if targetType == votes.TargetTypeComment {
		return voteFieldCommentID
	}

	return voteFieldPostID
}

func (repo *VoteRepository) Atomically(ctx context.Context, fn func(repo votes.VoteRepository) error) error {
	if repo.inTx {
		return fn(repo)
	}

	return withTx(ctx, repo.db, func(tx *sql.Tx) error {
		return fn(&VoteRepository{db: repo.db, run: tx, inTx: true})
	})
}

func (repo *VoteRepository) TargetExists(ctx context.Context, target votes.Target) (bool, error) {
	table := tablePosts
	if target.Type == votes.TargetTypeComment {
		table = tableComments
	}

	var count int

	err := sq.Select("COUNT(*)").
		From(table).
		Where(sq.Eq{"id": target.ID}).
		RunWith(repo.run).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count targets: %w", err)
	}

	return count > 0, nil
}

func (repo *VoteRepository) FindByUserTarget(ctx context.Context, userID string, target votes.Target) (*votes.Vote, error) {
	q := sq.Select(voteColumns()...).
		From(tableVotes).
		Where(sq.Eq{
			voteFieldUserID:              userID,
			voteTargetField(target.Type): target.ID,
		}).
		RunWith(repo.run)

	vote, err := scanVote(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &votes.VoteNotFoundError{UserID: userID, Target: target}
		}

		return nil, fmt.Errorf("failed to scan vote: %w", err)
	}

	return vote, nil
}

func (repo *VoteRepository) Insert(ctx context.Context, vote *votes.Vote) error {
	var postID, commentID *string

	switch vote.Target.Type {
	case votes.TargetTypePost:
		postID = &vote.Target.ID
	case votes.TargetTypeComment:
		commentID = &vote.Target.ID
	}

	_, err := sq.Insert(tableVotes).
		Columns(voteColumns()...).
		Values(
			vote.ID,
			vote.UserID,
			postID,
			commentID,
			vote.IsUpvote,
			vote.CreatedAt,
			vote.UpdatedAt,
		).
		RunWith(repo.run).
		ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err, tableVotes) {
			return &votes.AlreadyVotedError{UserID: vote.UserID, Target: vote.Target}
		}

		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *VoteRepository) UpdateDirection(ctx context.Context, voteID string, isUpvote bool, updatedAt time.Time) error {
	result, err := sq.Update(tableVotes).
		Set(voteFieldIsUpvote, isUpvote).
		Set(voteFieldUpdatedAt, updatedAt).
		Where(sq.Eq{voteFieldID: voteID}).
		RunWith(repo.run).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	return requireAffected(result, &votes.VoteNotFoundError{ID: voteID})
}

func (repo *VoteRepository) Delete(ctx context.Context, voteID string) error {
	result, err := sq.Delete(tableVotes).
		Where(sq.Eq{voteFieldID: voteID}).
		RunWith(repo.run).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	return requireAffected(result, &votes.VoteNotFoundError{ID: voteID})
}

func (repo *VoteRepository) CountByDirection(ctx context.Context, target votes.Target, isUpvote bool) (int, error) {
	var count int

	err := sq.Select("COUNT(*)").
		From(tableVotes).
		Where(sq.Eq{
			voteTargetField(target.Type): target.ID,
			voteFieldIsUpvote:            isUpvote,
		}).
		RunWith(repo.run).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}

	return count, nil
}

func (repo *VoteRepository) CountByTargets(
	ctx context.Context,
	targetType votes.TargetType,
	targetIDs []string,
) (map[string]votes.DirectionCounts, error) {
	targetField := voteTargetField(targetType)

	rows, err := sq.Select(
		targetField,
		"COALESCE(SUM(CASE WHEN "+voteFieldIsUpvote+" THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN "+voteFieldIsUpvote+" THEN 0 ELSE 1 END), 0)",
	).
		From(tableVotes).
		Where(sq.Eq{targetField: targetIDs}).
		GroupBy(targetField).
		RunWith(repo.run).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	counts := make(map[string]votes.DirectionCounts, len(targetIDs))

	for rows.Next() {
		var (
			targetID string
			c        votes.DirectionCounts
		)

		err = rows.Scan(&targetID, &c.Upvotes, &c.Downvotes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan counts: %w", err)
		}

		counts[targetID] = c
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return counts, nil
}

func (repo *VoteRepository) ListByUserTargets(
	ctx context.Context,
	userID string,
	targetType votes.TargetType,
	targetIDs []string,
) (map[string]bool, error) {
	targetField := voteTargetField(targetType)

	rows, err := sq.Select(targetField, voteFieldIsUpvote).
		From(tableVotes).
		Where(sq.Eq{voteFieldUserID: userID, targetField: targetIDs}).
		RunWith(repo.run).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	result := make(map[string]bool)

	for rows.Next() {
		var (
			targetID string
			isUpvote bool
		)

		err = rows.Scan(&targetID, &isUpvote)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}

		result[targetID] = isUpvote
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return result, nil
}

package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/posthub/groups"
)

const (
	tableGroups       = "user_groups"
	tableGroupMembers = "group_members"
)

type GroupRepository struct {
	db *sql.DB
}

var _ groups.GroupRepository = (*GroupRepository)(nil)

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

const (
	groupFieldID           = "id"
	groupFieldName         = "name"
	groupFieldSlug         = "slug"
	groupFieldDescription  = "description"
	groupFieldAdminID      = "admin_id"
	groupFieldAdminMessage = "admin_message"
	groupFieldCreatedAt    = "created_at"
	groupFieldUpdatedAt    = "updated_at"
)

func groupColumns() []string {
	return []string{
		groupFieldID,
		groupFieldName,
		groupFieldSlug,
		groupFieldDescription,
		groupFieldAdminID,
		groupFieldAdminMessage,
		groupFieldCreatedAt,
		groupFieldUpdatedAt,
	}
}

func scanGroup(row sq.RowScanner) (*groups.Group, error) {
	var group groups.Group

	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Slug,
		&group.Description,
		&group.AdminID,
		&group.AdminMessage,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &group, nil
}

const (
	memberFieldGroupID  = "group_id"
	memberFieldUserID   = "user_id"
	memberFieldJoinedAt = "joined_at"
)

func memberColumns() []string {
	return []string{memberFieldGroupID, memberFieldUserID, memberFieldJoinedAt}
}

func insertMember(ctx context.Context, db runner, member *groups.Member) error {
	_, err := sq.Insert(tableGroupMembers).
		Columns(memberColumns()...).
		Values(member.GroupID, member.UserID, member.JoinedAt).
		RunWith(db).
		ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err, tableGroupMembers) {
			return &groups.MemberAlreadyExistsError{GroupID: member.GroupID, UserID: member.UserID}
		}

		return fmt.Errorf("failed to exec member insert: %w", err)
	}

	return nil
}

func (repo *GroupRepository) Insert(ctx context.Context, group *groups.Group) error {
	return withTx(ctx, repo.db, func(tx *sql.Tx) error {
		_, err := sq.Insert(tableGroups).
			Columns(groupColumns()...).
			Values(
				group.ID,
				group.Name,
				group.Slug,
				group.Description,
				group.AdminID,
				group.AdminMessage,
				group.CreatedAt,
				group.UpdatedAt,
			).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			if isUniqueViolation(err, tableGroups) {
				return &groups.GroupAlreadyExistsError{Name: group.Name}
			}

			return fmt.Errorf("failed to exec group insert: %w", err)
		}

		return insertMember(ctx, tx, &groups.Member{
			GroupID:  group.ID,
			UserID:   group.AdminID,
			JoinedAt: group.CreatedAt,
		})
	})
}

func (repo *GroupRepository) Find(ctx context.Context, groupID string) (*groups.Group, error) {
	q := sq.Select(groupColumns()...).
		From(tableGroups).
		Where(sq.Eq{groupFieldID: groupID}).
		RunWith(repo.db)

	group, err := scanGroup(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &groups.GroupNotFoundError{ID: groupID}
		}

		return nil, fmt.Errorf("failed to scan group: %w", err)
	}

	return group, nil
}

func (repo *GroupRepository) FindBySlug(ctx context.Context, slug string) (*groups.Group, error) {
	q := sq.Select(groupColumns()...).
		From(tableGroups).
		Where(sq.Eq{groupFieldSlug: slug}).
		RunWith(repo.db)

	group, err := scanGroup(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &groups.GroupNotFoundError{Slug: slug}
		}

		return nil, fmt.Errorf("failed to scan group: %w", err)
	}

	return group, nil
}

func (repo *GroupRepository) Update(ctx context.Context, group *groups.Group) error {
	result, err := sq.Update(tableGroups).
		Set(groupFieldDescription, group.Description).
		Set(groupFieldAdminMessage, group.AdminMessage).
		Set(groupFieldUpdatedAt, group.UpdatedAt).
		Where(sq.Eq{groupFieldID: group.ID}).
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
		return &groups.GroupNotFoundError{ID: group.ID}
	}

	return nil
}

func (repo *GroupRepository) CountByAdmin(ctx context.Context, adminID string) (int, error) {
	var count int

	err := sq.Select("COUNT(*)").
		From(tableGroups).
		Where(sq.Eq{groupFieldAdminID: adminID}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}

	return count, nil
}

func (repo *GroupRepository) List(ctx context.Context, params *groups.ListGroupsParams) ([]*groups.Group, error) {
	q := sq.Select(groupColumns()...).
		From(tableGroups).
		OrderBy(groupFieldName)

	if params.NameContains != "" {
		// LIKE is case-insensitive for ASCII in sqlite.
		q = q.Where(sq.Expr(groupFieldName+` LIKE ? ESCAPE '\'`, "%"+escapeLike(params.NameContains)+"%"))
	}

	if params.MemberID != "" {
		memberOf := sq.Select(memberFieldGroupID).
			From(tableGroupMembers).
			Where(sq.Eq{memberFieldUserID: params.MemberID})

		sub, args, err := memberOf.ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build member filter: %w", err)
		}

		q = q.Where(sq.Expr(groupFieldID+" IN ("+sub+")", args...))
	}

	rows, err := q.RunWith(repo.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	result := make([]*groups.Group, 0)

	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}

		result = append(result, group)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return result, nil
}

func (repo *GroupRepository) AddMember(ctx context.Context, member *groups.Member) error {
	return insertMember(ctx, repo.db, member)
}

func (repo *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := sq.Delete(tableGroupMembers).
		Where(sq.Eq{memberFieldGroupID: groupID, memberFieldUserID: userID}).
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
		return &groups.MemberNotFoundError{GroupID: groupID, UserID: userID}
	}

	return nil
}

func (repo *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int

	err := sq.Select("COUNT(*)").
		From(tableGroupMembers).
		Where(sq.Eq{memberFieldGroupID: groupID, memberFieldUserID: userID}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count members: %w", err)
	}

	return count > 0, nil
}

func (repo *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]*groups.Member, error) {
	rows, err := sq.Select(memberColumns()...).
		From(tableGroupMembers).
		Where(sq.Eq{memberFieldGroupID: groupID}).
		OrderBy(memberFieldJoinedAt).
		RunWith(repo.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	members := make([]*groups.Member, 0)

	for rows.Next() {
		var member groups.Member

		err = rows.Scan(&member.GroupID, &member.UserID, &member.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}

		members = append(members, &member)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return members, nil
}

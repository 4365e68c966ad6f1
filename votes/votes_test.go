package votes_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/db/sqlite3"
	"github.com/nasermirzaei89/posthub/db/sqlite3/sqlite3test"
	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/nasermirzaei89/posthub/votes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*votes.Service, *sql.DB) {
	t.Helper()

	db := sqlite3test.New(t)

	return votes.NewService(sqlite3.NewVoteRepository(db)), db
}

func countRows(t *testing.T, db *sql.DB, userID string) int {
	t.Helper()

	var count int

	err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM votes WHERE user_id = ?", userID).Scan(&count)
	require.NoError(t, err)

	return count
}

func requireCounts(t *testing.T, svc *votes.Service, target votes.Target, upvotes, downvotes int) {
	t.Helper()

	ctx := context.Background()

	got, err := svc.TotalUpvotes(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, upvotes, got, "upvotes")

	got, err = svc.TotalDownvotes(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, downvotes, got, "downvotes")
}

func TestToggleVoteOnPost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("same direction twice retracts", func(t *testing.T) {
		t.Parallel()

		svc, db := newService(t)

		user := sqlite3test.CreateUser(t, db, false)
		post := sqlite3test.CreatePost(t, db, user.ID)
		target := votes.PostTarget(post.ID)

		state, err := svc.ToggleVote(ctx, auth.UserActor(user), target, true)
		require.NoError(t, err)
		assert.Equal(t, votes.VoteStateCreated, state)
		requireCounts(t, svc, target, 1, 0)

		state, err = svc.ToggleVote(ctx, auth.UserActor(user), target, true)
		require.NoError(t, err)
		assert.Equal(t, votes.VoteStateRetracted, state)
		requireCounts(t, svc, target, 0, 0)
		assert.Zero(t, countRows(t, db, user.ID))
	})

	t.Run("opposite direction flips", func(t *testing.T) {
		t.Parallel()

		svc, db := newService(t)

		user := sqlite3test.CreateUser(t, db, false)
		post := sqlite3test.CreatePost(t, db, user.ID)
		target := votes.PostTarget(post.ID)

		_, err := svc.ToggleVote(ctx, auth.UserActor(user), target, true)
		require.NoError(t, err)

		state, err := svc.ToggleVote(ctx, auth.UserActor(user), target, false)
		require.NoError(t, err)
		assert.Equal(t, votes.VoteStateFlipped, state)
		requireCounts(t, svc, target, 0, 1)
		assert.Equal(t, 1, countRows(t, db, user.ID))

		tally, err := svc.GetTally(ctx, target, user.ID)
		require.NoError(t, err)
		require.NotNil(t, tally.UserVote)
		assert.False(t, *tally.UserVote)
		assert.Equal(t, -1, tally.Score())
	})

	t.Run("votes of different users are independent", func(t *testing.T) {
		t.Parallel()

		svc, db := newService(t)

		alice := sqlite3test.CreateUser(t, db, false)
		bob := sqlite3test.CreateUser(t, db, false)
		post := sqlite3test.CreatePost(t, db, alice.ID)
		target := votes.PostTarget(post.ID)

		_, err := svc.ToggleVote(ctx, auth.UserActor(alice), target, true)
		require.NoError(t, err)

		_, err = svc.ToggleVote(ctx, auth.UserActor(bob), target, true)
		require.NoError(t, err)

		requireCounts(t, svc, target, 2, 0)

		_, err = svc.ToggleVote(ctx, auth.UserActor(bob), target, false)
		require.NoError(t, err)

		requireCounts(t, svc, target, 1, 1)
	})
}

func TestToggleVoteOnComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, db := newService(t)

	user := sqlite3test.CreateUser(t, db, false)
	post := sqlite3test.CreatePost(t, db, user.ID)

	commentSvc := discuss.NewService(sqlite3.NewCommentRepository(db), sqlite3.NewThreadRepository(db))

	comment, err := commentSvc.CreateComment(ctx, auth.UserActor(user), discuss.CreateCommentRequest{
		Thread:  discuss.PostThread(post.ID),
		Content: "vote on me",
	})
	require.NoError(t, err)

	commentTarget := votes.CommentTarget(comment.ID)
	postTarget := votes.PostTarget(post.ID)

	state, err := svc.ToggleVote(ctx, auth.UserActor(user), commentTarget, false)
	require.NoError(t, err)
	assert.Equal(t, votes.VoteStateCreated, state)

	_, err = svc.ToggleVote(ctx, auth.UserActor(user), postTarget, true)
	require.NoError(t, err)

	requireCounts(t, svc, commentTarget, 0, 1)
	requireCounts(t, svc, postTarget, 1, 0)

	err = commentSvc.DeleteComment(ctx, auth.UserActor(user), comment.ID)
	require.NoError(t, err)

	requireCounts(t, svc, commentTarget, 0, 0)
	assert.Equal(t, 1, countRows(t, db, user.ID))
}

func TestToggleVoteErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, db := newService(t)

	user := sqlite3test.CreateUser(t, db, false)
	post := sqlite3test.CreatePost(t, db, user.ID)

	t.Run("anonymous actor", func(t *testing.T) {
		t.Parallel()

		_, err := svc.ToggleVote(ctx, auth.AnonymousActor, votes.PostTarget(post.ID), true)

		var authErr *auth.AuthenticationRequiredError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("missing target id", func(t *testing.T) {
		t.Parallel()

		_, err := svc.ToggleVote(ctx, auth.UserActor(user), votes.PostTarget(""), true)

		var invalidErr *votes.InvalidVoteError
		require.ErrorAs(t, err, &invalidErr)
	})

	t.Run("invalid target type", func(t *testing.T) {
		t.Parallel()

		_, err := svc.ToggleVote(ctx, auth.UserActor(user), votes.Target{Type: "group", ID: post.ID}, true)

		var invalidErr *votes.InvalidVoteError
		require.ErrorAs(t, err, &invalidErr)
	})

	t.Run("unknown post", func(t *testing.T) {
		t.Parallel()

		_, err := svc.ToggleVote(ctx, auth.UserActor(user), votes.PostTarget("missing"), true)

		var notFoundErr *votes.TargetNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})

	t.Run("unknown comment", func(t *testing.T) {
		t.Parallel()

		_, err := svc.ToggleVote(ctx, auth.UserActor(user), votes.CommentTarget("missing"), true)

		var notFoundErr *votes.TargetNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestToggleVoteConcurrently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, db := newService(t)

	user := sqlite3test.CreateUser(t, db, false)
	post := sqlite3test.CreatePost(t, db, user.ID)
	target := votes.PostTarget(post.ID)

	var wg sync.WaitGroup

	errs := make(chan error, 2)

	for _, isUpvote := range []bool{true, false} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.ToggleVote(ctx, auth.UserActor(user), target, isUpvote)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, countRows(t, db, user.ID))

	upvotes, err := svc.TotalUpvotes(ctx, target)
	require.NoError(t, err)

	downvotes, err := svc.TotalDownvotes(ctx, target)
	require.NoError(t, err)

	assert.Equal(t, 1, upvotes+downvotes)
}

func TestAtomicallyRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := sqlite3test.New(t)
	repo := sqlite3.NewVoteRepository(db)

	user := sqlite3test.CreateUser(t, db, false)
	post := sqlite3test.CreatePost(t, db, user.ID)
	target := votes.PostTarget(post.ID)

	err := repo.Atomically(ctx, func(repo votes.VoteRepository) error {
		err := repo.Insert(ctx, &votes.Vote{ID: "v1", UserID: user.ID, Target: target, IsUpvote: true})
		require.NoError(t, err)

		err = repo.Insert(ctx, &votes.Vote{ID: "v2", UserID: user.ID, Target: target, IsUpvote: false})

		var alreadyVotedErr *votes.AlreadyVotedError
		require.ErrorAs(t, err, &alreadyVotedErr)

		return err
	})
	require.Error(t, err)

	assert.Zero(t, countRows(t, db, user.ID))
}

func TestTallies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, db := newService(t)

	alice := sqlite3test.CreateUser(t, db, false)
	bob := sqlite3test.CreateUser(t, db, false)
	first := sqlite3test.CreatePost(t, db, alice.ID)
	second := sqlite3test.CreatePost(t, db, alice.ID)
	quiet := sqlite3test.CreatePost(t, db, alice.ID)

	_, err := svc.ToggleVote(ctx, auth.UserActor(alice), votes.PostTarget(first.ID), true)
	require.NoError(t, err)

	_, err = svc.ToggleVote(ctx, auth.UserActor(bob), votes.PostTarget(first.ID), true)
	require.NoError(t, err)

	_, err = svc.ToggleVote(ctx, auth.UserActor(bob), votes.PostTarget(second.ID), false)
	require.NoError(t, err)

	tallies, err := svc.Tallies(ctx, votes.TargetTypePost, []string{first.ID, second.ID, quiet.ID}, bob.ID)
	require.NoError(t, err)
	require.Len(t, tallies, 3)

	assert.Equal(t, 2, tallies[first.ID].Upvotes)
	assert.Equal(t, 0, tallies[first.ID].Downvotes)
	require.NotNil(t, tallies[first.ID].UserVote)
	assert.True(t, *tallies[first.ID].UserVote)

	assert.Equal(t, 1, tallies[second.ID].Downvotes)
	require.NotNil(t, tallies[second.ID].UserVote)
	assert.False(t, *tallies[second.ID].UserVote)

	assert.Zero(t, tallies[quiet.ID].Score())
	assert.Nil(t, tallies[quiet.ID].UserVote)

	anonymous, err := svc.Tallies(ctx, votes.TargetTypePost, []string{first.ID}, "")
	require.NoError(t, err)
	assert.Nil(t, anonymous[first.ID].UserVote)
}

package discuss_test

import (
	"testing"
	"time"

	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, parentID string, offset time.Duration) *discuss.Comment {
	postID := "post"

	comment := &discuss.Comment{
		ID:        id,
		PostID:    &postID,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(offset),
	}

	if parentID != "" {
		comment.ParentID = &parentID
	}

	return comment
}

func bounds(comments []*discuss.Comment) map[string][3]int {
	result := make(map[string][3]int, len(comments))
	for _, comment := range comments {
		result[comment.ID] = [3]int{comment.Left, comment.Right, comment.Depth}
	}

	return result
}

// requireValidNestedSet checks that the bounds of comments form a nested set that
// agrees with their parent links.
func requireValidNestedSet(t *testing.T, comments []*discuss.Comment) {
	t.Helper()

	seen := make(map[int]bool, 2*len(comments))
	byID := make(map[string]*discuss.Comment, len(comments))

	for _, comment := range comments {
		byID[comment.ID] = comment

		require.Less(t, comment.Left, comment.Right, "comment %s", comment.ID)
		require.False(t, seen[comment.Left], "duplicate bound %d", comment.Left)
		require.False(t, seen[comment.Right], "duplicate bound %d", comment.Right)

		seen[comment.Left] = true
		seen[comment.Right] = true
	}

	for i := 1; i <= 2*len(comments); i++ {
		require.True(t, seen[i], "bound %d is missing", i)
	}

	for _, a := range comments {
		for _, b := range comments {
			if a == b {
				continue
			}

			nested := a.IsAncestorOf(b) || b.IsAncestorOf(a)
			disjoint := a.Right < b.Left || b.Right < a.Left
			require.True(t, nested || disjoint, "%s and %s overlap", a.ID, b.ID)
		}
	}

	for _, comment := range comments {
		if comment.ParentID == nil {
			require.Zero(t, comment.Depth)

			continue
		}

		parent, ok := byID[*comment.ParentID]
		require.True(t, ok)
		require.True(t, parent.IsAncestorOf(comment), "%s is outside its parent", comment.ID)
		require.Equal(t, parent.Depth+1, comment.Depth)
	}
}

func TestNumberThread(t *testing.T) {
	t.Parallel()

	t.Run("empty thread", func(t *testing.T) {
		t.Parallel()

		discuss.NumberThread(nil)
	})

	t.Run("single root", func(t *testing.T) {
		t.Parallel()

		comments := []*discuss.Comment{node("a", "", 0)}

		discuss.NumberThread(comments)

		assert.Equal(t, map[string][3]int{"a": {1, 2, 0}}, bounds(comments))
	})

	t.Run("siblings are ordered by creation time", func(t *testing.T) {
		t.Parallel()

		comments := []*discuss.Comment{
			node("late", "", 2*time.Minute),
			node("early", "", time.Minute),
			node("reply", "early", 3*time.Minute),
		}

		discuss.NumberThread(comments)

		assert.Equal(t, map[string][3]int{
			"early": {1, 4, 0},
			"reply": {2, 3, 1},
			"late":  {5, 6, 0},
		}, bounds(comments))
	})

	t.Run("equal creation times fall back to id", func(t *testing.T) {
		t.Parallel()

		comments := []*discuss.Comment{
			node("b", "", 0),
			node("a", "", 0),
		}

		discuss.NumberThread(comments)

		assert.Equal(t, map[string][3]int{
			"a": {1, 2, 0},
			"b": {3, 4, 0},
		}, bounds(comments))
	})

	t.Run("comment with a missing parent becomes a root", func(t *testing.T) {
		t.Parallel()

		comments := []*discuss.Comment{
			node("a", "", 0),
			node("orphan", "gone", time.Minute),
		}

		discuss.NumberThread(comments)

		assert.Equal(t, map[string][3]int{
			"a":      {1, 2, 0},
			"orphan": {3, 4, 0},
		}, bounds(comments))
	})

	t.Run("deep tree is a valid nested set", func(t *testing.T) {
		t.Parallel()

		comments := []*discuss.Comment{
			node("r1", "", 0),
			node("r2", "", time.Second),
			node("r1-a", "r1", 2*time.Second),
			node("r1-b", "r1", 3*time.Second),
			node("r1-a-x", "r1-a", 4*time.Second),
			node("r1-a-x-y", "r1-a-x", 5*time.Second),
			node("r2-a", "r2", 6*time.Second),
		}

		discuss.NumberThread(comments)

		requireValidNestedSet(t, comments)

		got := bounds(comments)
		assert.Equal(t, [3]int{1, 10, 0}, got["r1"])
		assert.Equal(t, [3]int{4, 5, 3}, got["r1-a-x-y"])
		assert.Equal(t, [3]int{11, 14, 0}, got["r2"])
	})
}

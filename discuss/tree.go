package discuss

import (
	"cmp"
	"slices"
)

// NumberThread assigns nested-set bounds and depths to every comment of a single
// thread in one depth-first pass. Siblings are visited oldest first, ties broken by
// ID. A comment whose parent is not in comments is treated as a root.
//
// After numbering, comment B is a descendant of comment A exactly when
// A.Left < B.Left and B.Right < A.Right.
func NumberThread(comments []*Comment) {
	byID := make(map[string]*Comment, len(comments))
	for _, comment := range comments {
		byID[comment.ID] = comment
	}

	children := make(map[string][]*Comment, len(comments))
	roots := make([]*Comment, 0)

	for _, comment := range comments {
		if comment.ParentID != nil {
			if _, ok := byID[*comment.ParentID]; ok && *comment.ParentID != comment.ID {
				children[*comment.ParentID] = append(children[*comment.ParentID], comment)

				continue
			}
		}

		roots = append(roots, comment)
	}

	sortSiblings(roots)

	for _, siblings := range children {
		sortSiblings(siblings)
	}

	counter := 0

	var visit func(comment *Comment, depth int)

	visit = func(comment *Comment, depth int) {
		counter++
		comment.Left = counter
		comment.Depth = depth

		for _, child := range children[comment.ID] {
			visit(child, depth+1)
		}

		counter++
		comment.Right = counter
	}

	for _, root := range roots {
		visit(root, 0)
	}
}

func sortSiblings(siblings []*Comment) {
	slices.SortFunc(siblings, func(a, b *Comment) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
}

package contents

import (
	"context"
	"fmt"
)

type Category struct {
	ID   string
	Name string
	Slug string
}

type CategoryRepository interface {
	Insert(ctx context.Context, category *Category) (err error)
	Find(ctx context.Context, categoryID string) (category *Category, err error)
	FindByName(ctx context.Context, name string) (category *Category, err error)
	List(ctx context.Context) (categories []*Category, err error)
}

type CategoryNotFoundError struct {
	ID   string
	Name string
}

func (err CategoryNotFoundError) Error() string {
	if err.Name != "" {
		return fmt.Sprintf("category with name %q not found", err.Name)
	}

	return fmt.Sprintf("category with id %q not found", err.ID)
}

// CategoryAlreadyExistsError carries the stored category, whose name may differ
// from the requested one in case only.
type CategoryAlreadyExistsError struct {
	Name     string
	Existing *Category
}

func (err CategoryAlreadyExistsError) Error() string {
	return fmt.Sprintf("category %q already exists", err.Name)
}

package resource

import (
	"context"
	"slices"
)

// Identifiable is implemented by every resource that lives in a collection.
type Identifiable interface {
	GetID() string
}

// Mutate runs a single server mutation and reconciles c only once the server
// has confirmed it. With a patch the items are edited in place; without one
// the collection is re-fetched, unless it was never loaded. On failure c is
// left untouched and the error is returned for the caller to surface.
func Mutate[T any](ctx context.Context, c *Controller[T], mutate func(ctx context.Context) error, patch func([]T) []T) error {
	if err := mutate(ctx); err != nil {
		return err
	}
	if patch != nil {
		c.Patch(patch)
		return nil
	}
	c.refreshIfStarted(ctx)
	return nil
}

// MutateResult is Mutate for calls that return the updated resource; the
// returned value is handed to patch.
func MutateResult[T any, R any](ctx context.Context, c *Controller[T], mutate func(ctx context.Context) (R, error), patch func(R) func([]T) []T) (R, error) {
	res, err := mutate(ctx)
	if err != nil {
		return res, err
	}
	if patch != nil {
		c.Patch(patch(res))
		return res, nil
	}
	c.refreshIfStarted(ctx)
	return res, nil
}

func RemoveByID[T Identifiable](id string) func([]T) []T {
	return func(items []T) []T {
		return slices.DeleteFunc(items, func(item T) bool { return item.GetID() == id })
	}
}

func ReplaceByID[T Identifiable](updated T) func([]T) []T {
	return func(items []T) []T {
		for i := range items {
			if items[i].GetID() == updated.GetID() {
				items[i] = updated
			}
		}
		return items
	}
}

// UpdateByID applies fn to the item with the given id, if present.
func UpdateByID[T Identifiable](id string, fn func(*T)) func([]T) []T {
	return func(items []T) []T {
		for i := range items {
			if items[i].GetID() == id {
				fn(&items[i])
			}
		}
		return items
	}
}

func Prepend[T any](item T) func([]T) []T {
	return func(items []T) []T {
		return append([]T{item}, items...)
	}
}

// Find returns the item with the given id from the current state.
func Find[T Identifiable](c *Controller[T], id string) (T, bool) {
	for _, item := range c.State().Items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

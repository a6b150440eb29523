package query

import (
	"context"
	"fmt"

	"jeonsevault-wallet/internal/domain"
	"jeonsevault-wallet/internal/domain/entity"
)

// Fetch is the typed form of Cache.Fetch.
func Fetch[T any](ctx context.Context, c *Cache, desc entity.QueryDescriptor, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, desc, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	return as[T](desc, v, err)
}

// Refetch is the typed form of Cache.Refetch.
func Refetch[T any](ctx context.Context, c *Cache, desc entity.QueryDescriptor, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Refetch(ctx, desc, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	return as[T](desc, v, err)
}

func as[T any](desc entity.QueryDescriptor, v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", domain.ErrQueryTypeMismatch, desc.Key(), v)
	}
	return t, nil
}

package repository

import (
	"context"

	"inkwell/internal/cache"
	"inkwell/internal/models"
)

type cachedPostRepository struct {
	PostRepository
}

// NewCachedPostRepository serves GetByID through the Redis cache and drops the
// cached entry after a successful update. Without a Redis client it is a
// pass-through.
func NewCachedPostRepository(inner PostRepository) PostRepository {
	return &cachedPostRepository{PostRepository: inner}
}

func (r *cachedPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		p, err := r.PostRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdateOwned drops the cached entry before and after the write. The second
// delete evicts a copy a concurrent reader cached while the update ran; a
// reader that loaded the old row and stores it after that delete can still
// serve it until PostTTL expires.
func (r *cachedPostRepository) UpdateOwned(ctx context.Context, id, authorID string, changes models.PostChanges) (bool, error) {
	key := cache.PostKey(id)
	cache.Invalidate(ctx, key)
	matched, err := r.PostRepository.UpdateOwned(ctx, id, authorID, changes)
	if err == nil && matched {
		cache.Invalidate(ctx, key)
	}
	return matched, err
}

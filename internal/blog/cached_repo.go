package blog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ blogRepo = (*CachedRepo)(nil)

// CachedRepo is a read-through cache for single blog lookups. Lists always
// hit the store.
//
// Every mutation drops the entry before and after the write, and bumps a
// generation counter. A lookup only fills the cache when no mutation started
// or finished while it was reading the store, so a record read before a write
// never outlives it.
type CachedRepo struct {
	blogRepo
	cache      *freecache.Cache
	ttlSeconds int

	mutex      sync.Mutex
	generation uint64
}

func NewCachedRepo(repo blogRepo, cacheSizeBytes, ttlSeconds int) *CachedRepo {
	return &CachedRepo{
		blogRepo:   repo,
		cache:      freecache.NewCache(cacheSizeBytes),
		ttlSeconds: ttlSeconds,
	}
}

func (r *CachedRepo) Get(ctx context.Context, id string) (*Blog, error) {
	if cached, err := r.cache.Get([]byte(id)); err == nil {
		var b Blog
		if err := json.Unmarshal(cached, &b); err == nil {
			log.Tracef("blog %s served from cache", id)
			return &b, nil
		}
		r.cache.Del([]byte(id))
	} else if !errors.Is(err, freecache.ErrNotFound) {
		log.Warnf("blog cache get %s: %s", id, err)
	}

	readGeneration := r.currentGeneration()
	b, err := r.blogRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.putIfUnchanged(b, readGeneration)
	return b, nil
}

func (r *CachedRepo) Update(ctx context.Context, blog *Blog) error {
	r.invalidate(blog.ID)
	defer r.invalidate(blog.ID)
	return r.blogRepo.Update(ctx, blog)
}

func (r *CachedRepo) Delete(ctx context.Context, id string) error {
	r.invalidate(id)
	defer r.invalidate(id)
	return r.blogRepo.Delete(ctx, id)
}

// AddLike and AddComment never cache their result: concurrent engagements can
// return in any order, the next lookup reads the store.
func (r *CachedRepo) AddLike(ctx context.Context, id string) (*Blog, error) {
	r.invalidate(id)
	defer r.invalidate(id)
	return r.blogRepo.AddLike(ctx, id)
}

func (r *CachedRepo) AddComment(ctx context.Context, id string, comment Comment) (*Blog, error) {
	r.invalidate(id)
	defer r.invalidate(id)
	return r.blogRepo.AddComment(ctx, id, comment)
}

func (r *CachedRepo) currentGeneration() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.generation
}

func (r *CachedRepo) invalidate(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.generation++
	r.cache.Del([]byte(id))
}

func (r *CachedRepo) putIfUnchanged(b *Blog, readGeneration uint64) {
	blogJson, err := json.Marshal(b)
	if err != nil {
		log.Warnf("blog cache marshal %s: %s", b.ID, err)
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.generation != readGeneration {
		log.Tracef("blog %s changed while reading, not cached", b.ID)
		return
	}
	if err := r.cache.Set([]byte(b.ID), blogJson, r.ttlSeconds); err != nil {
		log.Warnf("blog cache set %s: %s", b.ID, err)
	}
}

package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogservice/internal/telemetry/tracing"
)

const (
	badgerKeyPrefix    = "blog:"
	badgerMaxTxRetries = 10
)

var _ blogRepo = (*BadgerRepo)(nil)

// BadgerRepo keeps blogs as JSON documents in an embedded badger store.
// Ids are time ordered (uuid v7), so key order is insertion order.
type BadgerRepo struct {
	db *badger.DB
}

func NewBadgerRepo(db *badger.DB) *BadgerRepo {
	return &BadgerRepo{
		db: db,
	}
}

func badgerKey(id string) []byte {
	return []byte(badgerKeyPrefix + id)
}

func (r *BadgerRepo) Add(ctx context.Context, blog *Blog) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.badger.blog.add")
	defer func() { tracing.EndSpan(span, err) }()

	id, err := newBlogID()
	if err != nil {
		return err
	}

	toStore := *blog
	toStore.ID = id
	if toStore.Date.IsZero() {
		toStore.Date = time.Now().Truncate(time.Microsecond)
	}
	if toStore.Comments == nil {
		toStore.Comments = []Comment{}
	}

	blogJson, err := json.Marshal(toStore)
	if err != nil {
		return fmt.Errorf("marshal blog: %w", err)
	}

	if err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(id), blogJson)
	}); err != nil {
		return fmt.Errorf("store blog: %w", err)
	}

	*blog = toStore
	span.SetAttributes(attribute.String("id", id))
	return nil
}

func (r *BadgerRepo) Get(ctx context.Context, id string) (_ *Blog, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.badger.blog.get")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	var b *Blog
	err = r.db.View(func(txn *badger.Txn) error {
		var err error
		b, err = getBlogTx(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BadgerRepo) List(ctx context.Context, criteria Criteria) (_ []*Blog, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.badger.blog.list")
	defer func() { tracing.EndSpan(span, err) }()

	var all []*Blog
	err = r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var b Blog
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			}); err != nil {
				return fmt.Errorf("unmarshal blog [%s]: %w", it.Item().Key(), err)
			}
			all = append(all, &b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return criteria.Filter(all), nil
}

func (r *BadgerRepo) Update(ctx context.Context, blog *Blog) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.badger.blog.update")
	span.SetAttributes(attribute.String("id", blog.ID))
	defer func() { tracing.EndSpan(span, err) }()

	_, err = r.modify(blog.ID, func(stored *Blog) {
		stored.Author = blog.Author
		stored.Title = blog.Title
		stored.Content = blog.Content
		stored.Category = blog.Category
	})
	return err
}

func (r *BadgerRepo) Delete(ctx context.Context, id string) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.badger.blog.delete")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrBlogNotFound
			}
			return err
		}
		return txn.Delete(badgerKey(id))
	})
}

func (r *BadgerRepo) AddLike(ctx context.Context, id string) (_ *Blog, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.badger.blog.like")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	return r.modify(id, func(stored *Blog) {
		stored.Likes++
	})
}

func (r *BadgerRepo) AddComment(ctx context.Context, id string, comment Comment) (_ *Blog, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "repo.badger.blog.comment")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	return r.modify(id, func(stored *Blog) {
		stored.Comments = append(stored.Comments, comment)
	})
}

// modify runs a read-modify-write of a single blog in one transaction.
// Badger detects conflicting concurrent writes at commit, in which case the
// whole transaction is retried.
func (r *BadgerRepo) modify(id string, mutate func(stored *Blog)) (*Blog, error) {
	var modified *Blog
	for attempt := 0; attempt < badgerMaxTxRetries; attempt++ {
		err := r.db.Update(func(txn *badger.Txn) error {
			stored, err := getBlogTx(txn, id)
			if err != nil {
				return err
			}

			mutate(stored)

			blogJson, err := json.Marshal(stored)
			if err != nil {
				return fmt.Errorf("marshal blog: %w", err)
			}
			modified = stored
			return txn.Set(badgerKey(id), blogJson)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return modified, nil
	}
	return nil, fmt.Errorf("modify blog %s: %w", id, badger.ErrConflict)
}

func getBlogTx(txn *badger.Txn, id string) (*Blog, error) {
	item, err := txn.Get(badgerKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBlogNotFound
	}
	if err != nil {
		return nil, err
	}

	var b Blog
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &b)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal blog %s: %w", id, err)
	}
	if b.Comments == nil {
		b.Comments = []Comment{}
	}
	return &b, nil
}

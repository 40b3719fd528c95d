package blog_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2beens/blogservice/internal/blog"
)

// memRepo is an in-memory blog store for handler tests. Blogs are kept in
// insertion order.
type memRepo struct {
	mutex sync.Mutex
	order []string
	blogs map[string]*blog.Blog
}

func newMemRepo() *memRepo {
	return &memRepo{
		blogs: make(map[string]*blog.Blog),
	}
}

func (r *memRepo) Count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.blogs)
}

// snapshot returns a copy of the stored blog, or nil.
func (r *memRepo) snapshot(id string) *blog.Blog {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	b, ok := r.blogs[id]
	if !ok {
		return nil
	}
	return cloneBlog(b)
}

func cloneBlog(b *blog.Blog) *blog.Blog {
	c := *b
	c.Comments = append([]blog.Comment{}, b.Comments...)
	return &c
}

func (r *memRepo) Add(_ context.Context, b *blog.Blog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	b.ID = id.String()
	if b.Date.IsZero() {
		b.Date = time.Now()
	}
	if b.Comments == nil {
		b.Comments = []blog.Comment{}
	}

	r.blogs[b.ID] = cloneBlog(b)
	r.order = append(r.order, b.ID)
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*blog.Blog, error) {
	if b := r.snapshot(id); b != nil {
		return b, nil
	}
	return nil, blog.ErrBlogNotFound
}

func (r *memRepo) List(_ context.Context, criteria blog.Criteria) ([]*blog.Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	all := make([]*blog.Blog, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, cloneBlog(r.blogs[id]))
	}
	return criteria.Filter(all), nil
}

func (r *memRepo) Update(_ context.Context, b *blog.Blog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, ok := r.blogs[b.ID]
	if !ok {
		return blog.ErrBlogNotFound
	}
	stored.Author = b.Author
	stored.Title = b.Title
	stored.Content = b.Content
	stored.Category = b.Category
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.blogs[id]; !ok {
		return blog.ErrBlogNotFound
	}
	delete(r.blogs, id)
	for i := range r.order {
		if r.order[i] == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memRepo) AddLike(_ context.Context, id string) (*blog.Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b, ok := r.blogs[id]
	if !ok {
		return nil, blog.ErrBlogNotFound
	}
	b.Likes++
	return cloneBlog(b), nil
}

func (r *memRepo) AddComment(_ context.Context, id string, comment blog.Comment) (*blog.Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b, ok := r.blogs[id]
	if !ok {
		return nil, blog.ErrBlogNotFound
	}
	b.Comments = append(b.Comments, comment)
	return cloneBlog(b), nil
}

package blog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogservice/internal/auth"
	"github.com/2beens/blogservice/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=blog_test

type blogRepo interface {
	Add(ctx context.Context, blog *Blog) error
	Get(ctx context.Context, id string) (*Blog, error)
	List(ctx context.Context, criteria Criteria) ([]*Blog, error)
	Update(ctx context.Context, blog *Blog) error
	Delete(ctx context.Context, id string) error
	AddLike(ctx context.Context, id string) (*Blog, error)
	AddComment(ctx context.Context, id string, comment Comment) (*Blog, error)
}

type Service struct {
	repo blogRepo
}

func NewService(repo blogRepo) *Service {
	return &Service{
		repo: repo,
	}
}

// validID rejects ids that could never have been issued by a store,
// so they resolve to not found without a round trip.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: [%s]", ErrBlogNotFound, id)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, identity auth.Identity, in Input) (_ *Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.create")
	defer func() { tracing.EndSpan(span, err) }()

	if identity.Username == "" {
		return nil, auth.ErrUnauthenticated
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	newBlog := &Blog{
		Author:   identity.Username,
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
		Date:     time.Now().Truncate(time.Microsecond),
		Comments: []Comment{},
	}
	if err := s.repo.Add(ctx, newBlog); err != nil {
		return nil, fmt.Errorf("add blog: %w", err)
	}

	span.SetAttributes(attribute.String("id", newBlog.ID))
	return newBlog, nil
}

func (s *Service) Get(ctx context.Context, id string) (_ *Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.get")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	if err := validID(id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, criteria Criteria) (_ []*Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.list")
	span.SetAttributes(
		attribute.String("title", criteria.Title),
		attribute.String("category", string(criteria.Category)),
		attribute.String("sort", criteria.SortField),
		attribute.String("order", criteria.SortOrder),
	)
	defer func() { tracing.EndSpan(span, err) }()

	blogs, err := s.repo.List(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	if blogs == nil {
		blogs = []*Blog{}
	}
	return blogs, nil
}

func (s *Service) ListByCategory(ctx context.Context, category Category) ([]*Blog, error) {
	return s.List(ctx, Criteria{Category: category})
}

// Update replaces title, content and category of a blog owned by the caller.
// The author is always the caller; it cannot be reassigned.
func (s *Service) Update(ctx context.Context, identity auth.Identity, id string, in Input) (_ *Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.update")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	existing, err := s.ownedBlog(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Author = identity.Username
	updated.Title = in.Title
	updated.Content = in.Content
	updated.Category = in.Category

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update blog %s: %w", id, err)
	}
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, identity auth.Identity, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.delete")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	if _, err := s.ownedBlog(ctx, identity, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete blog %s: %w", id, err)
	}
	return nil
}

// CheckOwner reports whether the caller may edit or delete the blog, without
// changing it.
func (s *Service) CheckOwner(ctx context.Context, identity auth.Identity, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.check-owner")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	_, err = s.ownedBlog(ctx, identity, id)
	return err
}

func (s *Service) ownedBlog(ctx context.Context, identity auth.Identity, id string) (*Blog, error) {
	if identity.Username == "" {
		return nil, auth.ErrUnauthenticated
	}
	if err := validID(id); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(existing, identity); err != nil {
		return nil, err
	}
	return existing, nil
}

// Like adds one like on behalf of any authenticated caller. Repeated likes
// from the same caller all count.
func (s *Service) Like(ctx context.Context, identity auth.Identity, id string) (_ *Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.like")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	if identity.Username == "" {
		return nil, auth.ErrUnauthenticated
	}
	if err := validID(id); err != nil {
		return nil, err
	}

	liked, err := s.repo.AddLike(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("like blog %s: %w", id, err)
	}
	return liked, nil
}

func (s *Service) Comment(ctx context.Context, identity auth.Identity, id, content string) (_ *Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.comment")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	if identity.Username == "" {
		return nil, auth.ErrUnauthenticated
	}
	if err := validID(id); err != nil {
		return nil, err
	}

	commented, err := s.repo.AddComment(ctx, id, Comment{
		Username: identity.Username,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("comment blog %s: %w", id, err)
	}
	return commented, nil
}

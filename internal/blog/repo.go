package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogservice/internal/telemetry/tracing"
)

// manual caching of blog posts not needed (at least for this use case):
// https://github.com/jackc/pgx/wiki/Automatic-Prepared-Statement-Caching

const blogColumns = `id::text, author, title, content, category, created_at, likes, comments`

var _ blogRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func newBlogID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate blog id: %w", err)
	}
	return id.String(), nil
}

func nullableCategory(c Category) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

func (r *Repo) Add(ctx context.Context, blog *Blog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.add")
	defer func() { tracing.EndSpan(span, err) }()

	id, err := newBlogID()
	if err != nil {
		return err
	}
	if blog.Date.IsZero() {
		blog.Date = time.Now().Truncate(time.Microsecond)
	}
	if blog.Comments == nil {
		blog.Comments = []Comment{}
	}

	commentsJson, err := json.Marshal(blog.Comments)
	if err != nil {
		return fmt.Errorf("marshal comments: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO blog (id, author, title, content, category, created_at, likes, comments)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::jsonb);`,
		id, blog.Author, blog.Title, blog.Content, nullableCategory(blog.Category), blog.Date, blog.Likes, string(commentsJson),
	)
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}

	blog.ID = id
	span.SetAttributes(attribute.String("id", id))
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Blog, err error) {
	log.Tracef("getting blog %s", id)

	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.get")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	row := r.db.QueryRow(ctx, `SELECT `+blogColumns+` FROM blog WHERE id = $1::uuid;`, id)
	return scanBlog(row)
}

func (r *Repo) List(ctx context.Context, criteria Criteria) (_ []*Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.list")
	span.SetAttributes(
		attribute.String("title", criteria.Title),
		attribute.String("category", string(criteria.Category)),
		attribute.String("sort", criteria.SortField),
		attribute.String("order", criteria.SortOrder),
	)
	defer func() { tracing.EndSpan(span, err) }()

	where, args := criteria.sqlWhere()
	query := `SELECT ` + blogColumns + ` FROM blog` + where + criteria.sqlOrderBy() + `;`
	log.Tracef("list blogs query: %s", query)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := make([]*Blog, 0)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// Update stores the author, title, content and category of the blog.
// id, date, likes and comments are not touched.
func (r *Repo) Update(ctx context.Context, blog *Blog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.update")
	span.SetAttributes(attribute.String("id", blog.ID))
	defer func() { tracing.EndSpan(span, err) }()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE blog SET author = $1, title = $2, content = $3, category = $4 WHERE id = $5::uuid;`,
		blog.Author, blog.Title, blog.Content, nullableCategory(blog.Category), blog.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.delete")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	tag, err := r.db.Exec(ctx, `DELETE FROM blog WHERE id = $1::uuid;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// AddLike increments the likes counter in a single statement, so concurrent
// likes are never lost.
func (r *Repo) AddLike(ctx context.Context, id string) (_ *Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.like")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	row := r.db.QueryRow(
		ctx,
		`UPDATE blog SET likes = likes + 1 WHERE id = $1::uuid RETURNING `+blogColumns+`;`,
		id,
	)
	return scanBlog(row)
}

// AddComment appends the comment to the end of the comments array.
func (r *Repo) AddComment(ctx context.Context, id string, comment Comment) (_ *Blog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.comment")
	span.SetAttributes(attribute.String("id", id))
	defer func() { tracing.EndSpan(span, err) }()

	commentJson, err := json.Marshal(comment)
	if err != nil {
		return nil, fmt.Errorf("marshal comment: %w", err)
	}

	row := r.db.QueryRow(
		ctx,
		`UPDATE blog SET comments = comments || jsonb_build_array($2::jsonb)
		WHERE id = $1::uuid RETURNING `+blogColumns+`;`,
		id, string(commentJson),
	)
	return scanBlog(row)
}

func scanBlog(row pgx.Row) (*Blog, error) {
	var b Blog
	var category *string
	var commentsJson []byte
	if err := row.Scan(
		&b.ID,
		&b.Author,
		&b.Title,
		&b.Content,
		&category,
		&b.Date,
		&b.Likes,
		&commentsJson,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}

	if category != nil {
		b.Category = Category(*category)
	}

	b.Comments = []Comment{}
	if len(commentsJson) > 0 {
		if err := json.Unmarshal(commentsJson, &b.Comments); err != nil {
			return nil, fmt.Errorf("unmarshal comments of blog %s: %w", b.ID, err)
		}
	}

	return &b, nil
}

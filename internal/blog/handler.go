package blog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/2beens/blogservice/internal/auth"
	"github.com/2beens/blogservice/internal/telemetry/metrics"
	"github.com/2beens/blogservice/internal/telemetry/tracing"
	"github.com/2beens/blogservice/pkg"
)

const RoutePrefix = "/api/blogs"

const (
	msgBlogCreated     = "Blog created"
	msgBlogUpdated     = "Blog updated successfully"
	msgBlogDeleted     = "Blog deleted successfully"
	msgBlogLiked       = "Blog liked"
	msgBlogCommented   = "Blog commented"
	msgBlogNotFound    = "Blog not found"
	msgForbiddenEdit   = "You are not authorized to edit this blog"
	msgForbiddenDelete = "You are not authorized to delete this blog"
	msgInvalidBody     = "Invalid request body"
	msgInvalidCategory = "Invalid blog category"
	msgUnauthorized    = "Unauthorized"
	msgInternalError   = "Internal server error"
)

type BlogResponse struct {
	Message string `json:"message,omitempty"`
	Blog    *Blog  `json:"blog"`
}

type BlogsResponse struct {
	Blogs []*Blog `json:"blogs"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type Handler struct {
	service        *Service
	metricsManager *metrics.Manager
}

func NewHandler(service *Service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc(RoutePrefix, handler.handleCreate).Methods("POST", "OPTIONS").Name("create-blog")
	router.HandleFunc(RoutePrefix, handler.handleList).Methods("GET").Name("list-blogs")
	router.HandleFunc(RoutePrefix+"/category/{category}", handler.handleListByCategory).Methods("GET").Name("blogs-by-category")
	router.HandleFunc(RoutePrefix+"/{id}", handler.handleGet).Methods("GET").Name("get-blog")
	router.HandleFunc(RoutePrefix+"/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("update-blog")
	router.HandleFunc(RoutePrefix+"/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-blog")
	router.HandleFunc(RoutePrefix+"/{id}/like", handler.handleLike).Methods("PATCH", "OPTIONS").Name("like-blog")
	router.HandleFunc(RoutePrefix+"/{id}/comment", handler.handleComment).Methods("PATCH", "OPTIONS").Name("comment-blog")
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.create")
	defer span.End()

	identity, _ := auth.IdentityFrom(ctx)

	var in Input
	if err := decodeBody(r, &in); err != nil {
		log.Errorf("create blog, unmarshal json body: %s", err)
		respondError(ctx, w, err, http.StatusBadRequest, msgInvalidBody)
		return
	}

	newBlog, err := handler.service.Create(ctx, identity, in)
	if err != nil {
		writeError(ctx, w, err, "create blog")
		return
	}

	handler.metricsManager.CounterBlogsCreated.Inc()
	log.Debugf("new blog %s [%s] added by %s", newBlog.ID, newBlog.Title, newBlog.Author)

	pkg.WriteJSON(w, BlogResponse{Message: msgBlogCreated, Blog: newBlog}, http.StatusCreated)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.get")
	defer span.End()

	b, err := handler.service.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, err, "get blog")
		return
	}

	pkg.WriteJSON(w, BlogResponse{Blog: b}, http.StatusOK)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.list")
	defer span.End()

	query := r.URL.Query()
	criteria := Criteria{
		Title:     query.Get("title"),
		Category:  Category(query.Get("category")),
		SortField: query.Get("sort"),
		SortOrder: query.Get("order"),
	}

	log.Tracef(
		"list blogs - title [%s], category [%s], sort [%s] [%s]",
		criteria.Title, criteria.Category, criteria.SortField, criteria.SortOrder,
	)

	blogs, err := handler.service.List(ctx, criteria)
	if err != nil {
		writeError(ctx, w, err, "list blogs")
		return
	}

	pkg.WriteJSON(w, BlogsResponse{Blogs: blogs}, http.StatusOK)
}

func (handler *Handler) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.list.category")
	defer span.End()

	blogs, err := handler.service.ListByCategory(ctx, Category(mux.Vars(r)["category"]))
	if err != nil {
		writeError(ctx, w, err, "list blogs by category")
		return
	}

	pkg.WriteJSON(w, BlogsResponse{Blogs: blogs}, http.StatusOK)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.update")
	defer span.End()

	identity, _ := auth.IdentityFrom(ctx)
	id := mux.Vars(r)["id"]

	var in Input
	if decodeErr := decodeBody(r, &in); decodeErr != nil {
		// ownership is checked before the payload
		if err := handler.service.CheckOwner(ctx, identity, id); err != nil {
			handler.writeUpdateError(ctx, w, err, id, identity)
			return
		}
		log.Errorf("update blog %s, unmarshal json body: %s", id, decodeErr)
		respondError(ctx, w, decodeErr, http.StatusBadRequest, msgInvalidBody)
		return
	}

	updated, err := handler.service.Update(ctx, identity, id, in)
	if err != nil {
		handler.writeUpdateError(ctx, w, err, id, identity)
		return
	}

	pkg.WriteJSON(w, BlogResponse{Message: msgBlogUpdated, Blog: updated}, http.StatusOK)
}

func (handler *Handler) writeUpdateError(ctx context.Context, w http.ResponseWriter, err error, id string, identity auth.Identity) {
	if errors.Is(err, ErrForbidden) {
		log.Warnf("update blog %s: denied for [%s]", id, identity.Username)
		respondError(ctx, w, err, http.StatusForbidden, msgForbiddenEdit)
		return
	}
	writeError(ctx, w, err, "update blog")
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.delete")
	defer span.End()

	identity, _ := auth.IdentityFrom(ctx)
	id := mux.Vars(r)["id"]

	err := handler.service.Delete(ctx, identity, id)
	if errors.Is(err, ErrForbidden) {
		log.Warnf("delete blog %s: denied for [%s]", id, identity.Username)
		respondError(ctx, w, err, http.StatusForbidden, msgForbiddenDelete)
		return
	}
	if err != nil {
		writeError(ctx, w, err, "delete blog")
		return
	}

	handler.metricsManager.CounterBlogsDeleted.Inc()
	log.Debugf("blog %s deleted by %s", id, identity.Username)

	pkg.WriteMessage(w, msgBlogDeleted, http.StatusOK)
}

func (handler *Handler) handleLike(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.like")
	defer span.End()

	identity, _ := auth.IdentityFrom(ctx)

	liked, err := handler.service.Like(ctx, identity, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, err, "like blog")
		return
	}

	handler.metricsManager.CounterBlogLikes.Inc()
	pkg.WriteJSON(w, BlogResponse{Message: msgBlogLiked, Blog: liked}, http.StatusCreated)
}

func (handler *Handler) handleComment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blog.comment")
	defer span.End()

	identity, _ := auth.IdentityFrom(ctx)
	id := mux.Vars(r)["id"]

	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		log.Errorf("comment blog %s, unmarshal json body: %s", id, err)
		respondError(ctx, w, err, http.StatusBadRequest, msgInvalidBody)
		return
	}

	commented, err := handler.service.Comment(ctx, identity, id, req.Comment)
	if err != nil {
		writeError(ctx, w, err, "comment blog")
		return
	}

	handler.metricsManager.CounterBlogComments.Inc()
	pkg.WriteJSON(w, BlogResponse{Message: msgBlogCommented, Blog: commented}, http.StatusCreated)
}

// decodeBody reads a JSON body into dst. An empty body leaves dst zeroed.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeError maps service errors to responses. Details of unexpected
// errors are logged only.
func writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrBlogNotFound):
		log.Debugf("%s: %s", op, err)
		respondError(ctx, w, err, http.StatusNotFound, msgBlogNotFound)
	case errors.Is(err, ErrInvalidCategory):
		log.Debugf("%s: %s", op, err)
		respondError(ctx, w, err, http.StatusBadRequest, msgInvalidCategory)
	case errors.Is(err, auth.ErrUnauthenticated):
		respondError(ctx, w, err, http.StatusUnauthorized, msgUnauthorized)
	default:
		log.Errorf("%s: %s", op, err)
		respondError(ctx, w, err, http.StatusInternalServerError, msgInternalError)
	}
}

// respondError records the failure on the request span, then writes the
// message to the client.
func respondError(ctx context.Context, w http.ResponseWriter, err error, status int, message string) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	pkg.WriteMessage(w, message, status)
}

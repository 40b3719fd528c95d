//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/blogservice/internal/blog"
)

type messageResponse struct {
	Message string `json:"message"`
}

func (s *IntegrationTestSuite) doRequest(
	ctx context.Context,
	method, path, token string,
	body any,
) *http.Response {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	return resp
}

func decodeResponse[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *IntegrationTestSuite) createBlog(ctx context.Context, token string, input blog.Input) *blog.Blog {
	resp := s.doRequest(ctx, http.MethodPost, blog.RoutePrefix, token, input)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	created := decodeResponse[blog.BlogResponse](s.T(), resp)
	require.NotNil(s.T(), created.Blog)
	return created.Blog
}

func (s *IntegrationTestSuite) TestBlogLifecycle() {
	t := s.T()
	ctx := context.Background()

	aliceToken := newSession(ctx, t, s.redisClient, "alice")
	bobToken := newSession(ctx, t, s.redisClient, "bob")
	defer logout(ctx, t, s.redisClient, bobToken)

	title := gofakeit.Sentence(4)
	created := s.createBlog(ctx, aliceToken, blog.Input{
		Title:    title,
		Content:  gofakeit.Paragraph(1, 3, 10, " "),
		Category: blog.CategoryTech,
	})
	assert.Equal(t, "alice", created.Author)
	assert.Equal(t, title, created.Title)
	assert.Zero(t, created.Likes)
	assert.Empty(t, created.Comments)

	blogPath := blog.RoutePrefix + "/" + created.ID

	// reads are public
	resp := s.doRequest(ctx, http.MethodGet, blogPath, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeResponse[blog.BlogResponse](t, resp)
	assert.Equal(t, created.ID, fetched.Blog.ID)

	// bob cannot edit nor delete alice's blog
	resp = s.doRequest(ctx, http.MethodPut, blogPath, bobToken, blog.Input{Title: "hijacked"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You are not authorized to edit this blog", decodeResponse[messageResponse](t, resp).Message)

	resp = s.doRequest(ctx, http.MethodDelete, blogPath, bobToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You are not authorized to delete this blog", decodeResponse[messageResponse](t, resp).Message)

	// but bob can like and comment
	resp = s.doRequest(ctx, http.MethodPatch, blogPath+"/like", bobToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	liked := decodeResponse[blog.BlogResponse](t, resp)
	assert.Equal(t, 1, liked.Blog.Likes)

	resp = s.doRequest(ctx, http.MethodPatch, blogPath+"/comment", bobToken, map[string]string{"comment": "nice one"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	commented := decodeResponse[blog.BlogResponse](t, resp)
	require.Len(t, commented.Blog.Comments, 1)
	assert.Equal(t, blog.Comment{Username: "bob", Content: "nice one"}, commented.Blog.Comments[0])
	assert.Equal(t, 1, commented.Blog.Likes)

	// alice edits her own blog
	resp = s.doRequest(ctx, http.MethodPut, blogPath, aliceToken, blog.Input{
		Title:    "updated title",
		Content:  "updated content",
		Category: blog.CategoryLifestyle,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeResponse[blog.BlogResponse](t, resp)
	assert.Equal(t, "Blog updated successfully", updated.Message)
	assert.Equal(t, "updated title", updated.Blog.Title)
	assert.Equal(t, blog.CategoryLifestyle, updated.Blog.Category)
	assert.Equal(t, "alice", updated.Blog.Author)
	assert.Equal(t, 1, updated.Blog.Likes)
	assert.Len(t, updated.Blog.Comments, 1)

	resp = s.doRequest(ctx, http.MethodGet, blog.RoutePrefix+"/category/Lifestyle", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byCategory := decodeResponse[blog.BlogsResponse](t, resp)
	assert.True(t, containsBlog(byCategory.Blogs, created.ID))

	// and deletes it
	resp = s.doRequest(ctx, http.MethodDelete, blogPath, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Blog deleted successfully", decodeResponse[messageResponse](t, resp).Message)

	resp = s.doRequest(ctx, http.MethodGet, blogPath, "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Blog not found", decodeResponse[messageResponse](t, resp).Message)

	// a logged out session can no longer write
	logout(ctx, t, s.redisClient, aliceToken)
	resp = s.doRequest(ctx, http.MethodPost, blog.RoutePrefix, aliceToken, blog.Input{Title: "too late"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", decodeResponse[messageResponse](t, resp).Message)
}

func (s *IntegrationTestSuite) TestBlogSearch() {
	t := s.T()
	ctx := context.Background()

	token := newSession(ctx, t, s.redisClient, "carol")
	defer logout(ctx, t, s.redisClient, token)

	marker := gofakeit.LetterN(12)
	first := s.createBlog(ctx, token, blog.Input{Title: "Alpha " + marker, Category: blog.CategoryBusiness})
	second := s.createBlog(ctx, token, blog.Input{Title: "beta " + marker, Category: blog.CategoryTech})
	_ = s.createBlog(ctx, token, blog.Input{Title: "unrelated", Category: blog.CategoryBusiness})

	query := url.Values{}
	query.Set("title", marker)
	query.Set("sort", "title")
	query.Set("order", "desc")
	resp := s.doRequest(ctx, http.MethodGet, blog.RoutePrefix+"?"+query.Encode(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decodeResponse[blog.BlogsResponse](t, resp)
	require.Len(t, found.Blogs, 2)
	assert.Equal(t, second.ID, found.Blogs[0].ID)
	assert.Equal(t, first.ID, found.Blogs[1].ID)

	query.Set("category", string(blog.CategoryBusiness))
	resp = s.doRequest(ctx, http.MethodGet, blog.RoutePrefix+"?"+query.Encode(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found = decodeResponse[blog.BlogsResponse](t, resp)
	require.Len(t, found.Blogs, 1)
	assert.Equal(t, first.ID, found.Blogs[0].ID)

	// matches nothing, still a list
	query = url.Values{}
	query.Set("title", gofakeit.LetterN(20))
	resp = s.doRequest(ctx, http.MethodGet, blog.RoutePrefix+"?"+query.Encode(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found = decodeResponse[blog.BlogsResponse](t, resp)
	assert.NotNil(t, found.Blogs)
	assert.Empty(t, found.Blogs)
}

func (s *IntegrationTestSuite) TestBlogInvalidRequests() {
	t := s.T()
	ctx := context.Background()

	token := newSession(ctx, t, s.redisClient, "dave")
	defer logout(ctx, t, s.redisClient, token)

	resp := s.doRequest(ctx, http.MethodPost, blog.RoutePrefix, token, blog.Input{Title: "x", Category: "Cooking"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid blog category", decodeResponse[messageResponse](t, resp).Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+blog.RoutePrefix, bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = s.httpClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", decodeResponse[messageResponse](t, resp).Message)

	resp = s.doRequest(ctx, http.MethodPatch, blog.RoutePrefix+"/not-a-uuid/like", token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Blog not found", decodeResponse[messageResponse](t, resp).Message)

	resp = s.doRequest(ctx, http.MethodDelete, blog.RoutePrefix+"/not-a-uuid", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func containsBlog(blogs []*blog.Blog, id string) bool {
	for _, b := range blogs {
		if b.ID == id {
			return true
		}
	}
	return false
}

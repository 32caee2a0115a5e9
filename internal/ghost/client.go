// ABOUTME: HTTP client for the Ghost Admin API.
// ABOUTME: Looks up, creates, updates, and lists posts and pages with a signed token.
package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2389-research/ghostpost/internal/apperr"
	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/document"
	"github.com/2389-research/ghostpost/internal/logging"
	"github.com/2389-research/ghostpost/internal/models"
)

// Client talks to one Ghost instance's Admin API.
type Client struct {
	siteURL         string
	apiVersion      string
	adminKey        string
	format          string
	token           string
	client          *http.Client
	now             func() time.Time
	log             logging.Logger
	conflictRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion sets the Admin API path version segment (default v3).
func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

// WithFormat selects the envelope format requested when listing posts.
func WithFormat(format string) Option {
	return func(c *Client) { c.format = format }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithClock replaces time.Now for token issuance.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithConflictRetries sets how many times Publish re-fetches and retries an
// update rejected for a stale updated_at. Zero disables retrying.
func WithConflictRetries(n int) Option {
	return func(c *Client) { c.conflictRetries = n }
}

// NewClient creates a client for the site at siteURL.
func NewClient(siteURL, adminKey string, opts ...Option) *Client {
	c := &Client{
		siteURL:         strings.TrimRight(siteURL, "/"),
		apiVersion:      config.DefaultAPIVersion,
		adminKey:        adminKey,
		format:          config.FormatLexical,
		client:          &http.Client{Timeout: 30 * time.Second},
		now:             time.Now,
		log:             logging.NoOp(),
		conflictRetries: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromInstance creates a client for a resolved instance.
func FromInstance(ic *config.InstanceConfig, opts ...Option) *Client {
	base := []Option{WithAPIVersion(ic.APIVersion), WithFormat(ic.Format)}
	return NewClient(ic.URL, ic.AdminKey, append(base, opts...)...)
}

// Authenticate signs a fresh token for this session. Every request made by
// the client afterwards carries it.
func (c *Client) Authenticate() error {
	token, err := SignToken(c.adminKey, c.now())
	if err != nil {
		return err
	}
	c.token = token
	return nil
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/ghost/api/%s/admin%s", c.siteURL, c.apiVersion, path)
}

// do sends one request and returns the status and body. Only transport
// problems are errors here; callers interpret the status.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (int, []byte, error) {
	if c.token == "" {
		if err := c.Authenticate(); err != nil {
			return 0, nil, err
		}
	}

	u := c.endpoint(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Ghost "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("ghost request failed", "method", method, "path", path, "error", err)
		return 0, nil, apperr.TransportFailure(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apperr.TransportFailure(err)
	}
	c.log.Debug("ghost request", "method", method, "path", path, "status", resp.StatusCode)
	return resp.StatusCode, data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, nil, body, "application/json")
}

// decodeFirst extracts the first resource from a {"posts": [...]} style envelope.
func decodeFirst(resource string, data []byte) (*models.Post, error) {
	var env map[string][]*models.Post
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	items := env[resource]
	if len(items) == 0 || items[0] == nil {
		return nil, nil
	}
	return items[0], nil
}

// FindBySlug looks up a post or page by slug. A missing resource is nil, nil.
func (c *Client) FindBySlug(ctx context.Context, ct models.ContentType, slug string) (*models.Post, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/"+ct.Resource()+"/slug/"+url.PathEscape(slug), nil, nil, "")
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status >= 400 {
		return nil, apperr.RemoteRejection(status, string(data))
	}
	return decodeFirst(ct.Resource(), data)
}

// Create inserts a new post or page. Status defaults to draft.
func (c *Client) Create(ctx context.Context, ct models.ContentType, post *models.Post) (*models.Post, error) {
	payload := *post
	if payload.Status == "" {
		payload.Status = models.StatusDraft
	}
	status, data, err := c.doJSON(ctx, http.MethodPost, "/"+ct.Resource(), map[string][]*models.Post{ct.Resource(): {&payload}})
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apperr.RemoteRejection(status, string(data))
	}
	created, err := decodeFirst(ct.Resource(), data)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("create %s returned no resource", ct)
	}
	return created, nil
}

// Update replaces an existing post or page by id. The payload must carry the
// server's current updated_at.
func (c *Client) Update(ctx context.Context, ct models.ContentType, id string, post *models.Post) (*models.Post, error) {
	updated, _, err := c.update(ctx, ct, id, post)
	return updated, err
}

func (c *Client) update(ctx context.Context, ct models.ContentType, id string, post *models.Post) (*models.Post, int, error) {
	status, data, err := c.doJSON(ctx, http.MethodPut, "/"+ct.Resource()+"/"+url.PathEscape(id), map[string][]*models.Post{ct.Resource(): {post}})
	if err != nil {
		return nil, 0, err
	}
	if status >= 400 {
		return nil, status, apperr.RemoteRejection(status, string(data))
	}
	updated, err := decodeFirst(ct.Resource(), data)
	if err != nil {
		return nil, status, err
	}
	if updated == nil {
		return nil, status, fmt.Errorf("update %s returned no resource", ct)
	}
	return updated, status, nil
}

// Publish upserts by slug: create when no resource has the slug, otherwise
// update it carrying the looked-up updated_at.
func (c *Client) Publish(ctx context.Context, ct models.ContentType, post *models.Post) (*models.Post, error) {
	if post.Slug == "" {
		return nil, fmt.Errorf("publish %s: slug is required", ct)
	}

	existing, err := c.FindBySlug(ctx, ct, post.Slug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		c.log.Info("creating", "type", ct, "slug", post.Slug)
		return c.Create(ctx, ct, post)
	}

	payload := *post
	payload.UpdatedAt = existing.UpdatedAt
	c.log.Info("updating", "type", ct, "slug", post.Slug, "id", existing.ID)
	updated, status, err := c.update(ctx, ct, existing.ID, &payload)

	for attempt := 0; status == http.StatusConflict && attempt < c.conflictRetries; attempt++ {
		c.log.Warn("stale updated_at, retrying", "type", ct, "slug", post.Slug, "attempt", attempt+1)
		latest, ferr := c.FindBySlug(ctx, ct, post.Slug)
		if ferr != nil {
			return nil, ferr
		}
		if latest == nil {
			return nil, err
		}
		payload.UpdatedAt = latest.UpdatedAt
		updated, status, err = c.update(ctx, ct, latest.ID, &payload)
	}
	return updated, err
}

// PublishPost upserts a post.
func (c *Client) PublishPost(ctx context.Context, post *models.Post) (*models.Post, error) {
	return c.Publish(ctx, models.TypePost, post)
}

// PublishPage upserts a page.
func (c *Client) PublishPage(ctx context.Context, post *models.Post) (*models.Post, error) {
	return c.Publish(ctx, models.TypePage, post)
}

// ListOptions configures ListPosts.
type ListOptions struct {
	Limit        int  // 0 fetches all posts
	MarkdownOnly bool // keep only posts whose body holds a markdown card
}

// ListPosts fetches posts ordered by publish date, newest first.
func (c *Client) ListPosts(ctx context.Context, opts ListOptions) ([]*models.Post, error) {
	q := url.Values{}
	q.Set("order", "published_at DESC")
	if c.format == config.FormatMobiledoc {
		q.Set("formats", "mobiledoc")
	} else {
		q.Set("include", "lexical")
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	} else {
		q.Set("limit", "all")
	}

	status, data, err := c.do(ctx, http.MethodGet, "/posts", q, nil, "")
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apperr.RemoteRejection(status, string(data))
	}

	var env struct {
		Posts []*models.Post `json:"posts"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !opts.MarkdownOnly {
		return env.Posts, nil
	}

	posts := make([]*models.Post, 0, len(env.Posts))
	for _, p := range env.Posts {
		if document.HasMarkdownCard(p) {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

// Ping checks that the site is reachable and accepts the admin key.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("limit", "1")
	status, data, err := c.do(ctx, http.MethodGet, "/posts", q, nil, "")
	if err != nil {
		return err
	}
	if status >= 400 {
		return apperr.RemoteRejection(status, string(data))
	}
	return nil
}

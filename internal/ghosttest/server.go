// ABOUTME: In-memory fake of the Ghost Admin API for tests, built on gin.
// ABOUTME: Enforces signed tokens, envelope shapes, and updated_at collision checks.
package ghosttest

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/2389-research/ghostpost/internal/models"
)

// AdminKey is an id:hex-secret key accepted by servers created with NewServer.
const AdminKey = "65f1c0ffee0123456789abcd:a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"

// Request is one recorded API call.
type Request struct {
	Method      string
	Path        string
	Query       string
	Auth        string
	ContentType string
	Body        []byte
}

// Upload is one recorded image upload.
type Upload struct {
	Filename    string
	ContentType string
	Ref         string
	Size        int
}

// Server is a running fake Ghost instance.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	key      []byte
	kid      string
	store    map[string]map[string]*models.Post // resource -> slug -> post
	requests []Request
	uploads  []Upload
	seq      int
	base     time.Time

	onLookup func(resource, slug string)
}

// NewServer starts a fake Ghost Admin API that accepts tokens signed with AdminKey.
func NewServer(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kid, hexSecret, _ := strings.Cut(AdminKey, ":")
	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		t.Fatalf("bad test admin key: %v", err)
	}

	s := &Server{
		key:   secret,
		kid:   kid,
		store: map[string]map[string]*models.Post{"posts": {}, "pages": {}},
		base:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}

	r := gin.New()
	r.Use(s.record)
	admin := r.Group("/ghost/api/:version/admin", s.authRequired)
	for _, res := range []string{"posts", "pages"} {
		res := res
		admin.GET("/"+res, s.list(res))
		admin.GET("/"+res+"/slug/:slug", s.lookup(res))
		admin.POST("/"+res, s.create(res))
		admin.PUT("/"+res+"/:id", s.update(res))
	}
	admin.POST("/images/upload", s.upload)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Query:       c.Request.URL.RawQuery,
		Auth:        c.GetHeader("Authorization"),
		ContentType: c.GetHeader("Content-Type"),
		Body:        body,
	})
	s.mu.Unlock()
	c.Next()
}

func ghostError(c *gin.Context, status int, kind, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"errors": []gin.H{{"type": kind, "message": msg}}})
}

func (s *Server) authRequired(c *gin.Context) {
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Ghost ")
	if !ok || raw == "" {
		ghostError(c, http.StatusUnauthorized, "UnauthorizedError", "Authorization header format is \"Authorization: Ghost [token]\"")
		return
	}
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		if tok.Header["kid"] != s.kid {
			return nil, fmt.Errorf("unknown kid %v", tok.Header["kid"])
		}
		return s.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("/v3/admin/"), jwt.WithIssuedAt())
	if err != nil || !token.Valid {
		ghostError(c, http.StatusUnauthorized, "UnauthorizedError", fmt.Sprintf("invalid token: %v", err))
		return
	}
	c.Next()
}

func (s *Server) stamp() string {
	s.seq++
	return s.base.Add(time.Duration(s.seq) * time.Second).Format("2006-01-02T15:04:05.000Z")
}

func (s *Server) list(res string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		items := make([]*models.Post, 0, len(s.store[res]))
		for _, p := range s.store[res] {
			cp := *p
			items = append(items, &cp)
		}
		sort.Slice(items, func(i, j int) bool { return items[i].PublishedAt > items[j].PublishedAt })
		c.JSON(http.StatusOK, gin.H{res: items})
	}
}

func (s *Server) lookup(res string) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		s.mu.Lock()
		p, ok := s.store[res][slug]
		var cp models.Post
		if ok {
			cp = *p
		}
		hook := s.onLookup
		s.mu.Unlock()

		if !ok {
			ghostError(c, http.StatusNotFound, "NotFoundError", "Resource not found")
		} else {
			c.JSON(http.StatusOK, gin.H{res: []models.Post{cp}})
		}
		if hook != nil {
			hook(res, slug)
		}
	}
}

func bindOne(c *gin.Context, res string) (*models.Post, bool) {
	var env map[string][]models.Post
	if err := c.ShouldBindJSON(&env); err != nil || len(env[res]) != 1 {
		ghostError(c, http.StatusBadRequest, "BadRequestError", "No "+res+" found in request body")
		return nil, false
	}
	p := env[res][0]
	return &p, true
}

func (s *Server) create(res string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := bindOne(c, res)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := s.store[res][p.Slug]; exists || p.Slug == "" {
			ghostError(c, http.StatusUnprocessableEntity, "ValidationError", "slug already in use")
			return
		}
		id := uuid.New()
		p.ID = strings.ReplaceAll(id.String(), "-", "")[:24]
		p.UUID = &id
		p.CreatedAt = s.stamp()
		p.UpdatedAt = p.CreatedAt
		if p.Status == "" {
			p.Status = models.StatusDraft
		}
		if p.Status == models.StatusPublished {
			p.PublishedAt = p.CreatedAt
		}
		s.store[res][p.Slug] = p
		cp := *p
		c.JSON(http.StatusCreated, gin.H{res: []models.Post{cp}})
	}
}

func (s *Server) update(res string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := bindOne(c, res)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		var current *models.Post
		for _, stored := range s.store[res] {
			if stored.ID == c.Param("id") {
				current = stored
			}
		}
		if current == nil {
			ghostError(c, http.StatusNotFound, "NotFoundError", "Resource not found")
			return
		}
		if p.UpdatedAt != current.UpdatedAt {
			ghostError(c, http.StatusConflict, "UpdateCollisionError", "Saving failed! Someone else is editing this post.")
			return
		}

		if p.Title != "" {
			current.Title = p.Title
		}
		if p.Lexical != "" {
			current.Lexical = p.Lexical
		}
		if p.Mobiledoc != "" {
			current.Mobiledoc = p.Mobiledoc
		}
		if p.Status != "" {
			current.Status = p.Status
		}
		if p.Slug != "" && p.Slug != current.Slug {
			delete(s.store[res], current.Slug)
			current.Slug = p.Slug
			s.store[res][p.Slug] = current
		}
		current.UpdatedAt = s.stamp()
		cp := *current
		c.JSON(http.StatusOK, gin.H{res: []models.Post{cp}})
	}
}

func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		ghostError(c, http.StatusBadRequest, "ValidationError", "Please select an image.")
		return
	}
	ref := c.PostForm("ref")

	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Ref:         ref,
		Size:        int(fh.Size),
	})
	s.mu.Unlock()

	url := s.URL + "/content/images/2024/01/" + fh.Filename
	c.JSON(http.StatusCreated, gin.H{"images": []gin.H{{"url": url, "ref": ref}}})
}

// OnLookup registers fn to run after each slug lookup has been answered.
func (s *Server) OnLookup(fn func(resource, slug string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLookup = fn
}

// Seed stores a resource directly, assigning id and timestamps.
func (s *Server) Seed(res string, p models.Post) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	p.ID = strings.ReplaceAll(id.String(), "-", "")[:24]
	p.UUID = &id
	p.CreatedAt = s.stamp()
	p.UpdatedAt = p.CreatedAt
	s.store[res][p.Slug] = &p
	return p
}

// Touch bumps a stored resource's updated_at, as another editor saving would.
func (s *Server) Touch(res, slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.store[res][slug]; ok {
		p.UpdatedAt = s.stamp()
	}
}

// Get returns a copy of the stored resource with the slug.
func (s *Server) Get(res, slug string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.store[res][slug]
	if !ok {
		return models.Post{}, false
	}
	return *p, true
}

// Requests returns the recorded calls.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Uploads returns the recorded image uploads.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Calls summarises recorded requests as "METHOD /path" strings relative to the admin root.
func (s *Server) Calls() []string {
	var calls []string
	for _, r := range s.Requests() {
		path := r.Path
		if i := strings.Index(path, "/admin"); i >= 0 {
			path = path[i+len("/admin"):]
		}
		calls = append(calls, r.Method+" "+path)
	}
	return calls
}

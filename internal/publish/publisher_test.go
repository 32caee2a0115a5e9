// ABOUTME: Tests for publish orchestration against a fake Ghost instance.
// ABOUTME: Covers route selection, config and format failures, image upload, and share write-back.
package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2389-research/ghostpost/internal/apperr"
	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/document"
	"github.com/2389-research/ghostpost/internal/ghosttest"
	"github.com/2389-research/ghostpost/internal/models"
	"github.com/2389-research/ghostpost/internal/storage"
)

type fakePrompter struct {
	route  models.Route
	cancel bool
	err    error
	calls  []RouteRequest
}

func (f *fakePrompter) PromptRoute(_ context.Context, req RouteRequest) (models.Route, bool, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return models.Route{}, false, f.err
	}
	if f.cancel {
		return models.Route{}, false, nil
	}
	return f.route, true, nil
}

type fixture struct {
	srv      *ghosttest.Server
	dir      string
	store    *storage.NoteMDStore
	cfg      *config.Config
	prompter *fakePrompter
	pub      *Publisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := ghosttest.NewServer(t)
	dir := t.TempDir()
	store, err := storage.NewNoteMDStore(dir)
	if err != nil {
		t.Fatalf("NewNoteMDStore error: %v", err)
	}
	cfg := &config.Config{}
	cfg.SetInstance("blog", config.InstanceSettings{URL: srv.URL, PostPrefix: "blog/posts/", PagePrefix: "blog/pages/"})
	secrets := map[string]string{config.SecretKey("blog"): ghosttest.AdminKey}
	prompter := &fakePrompter{}

	return &fixture{
		srv:      srv,
		dir:      store.Dir(),
		store:    store,
		cfg:      cfg,
		prompter: prompter,
		pub: &Publisher{
			Provider: config.NewFileProvider(cfg, secrets),
			Notes:    store,
			Prompter: prompter,
		},
	}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.dir, name+".md")
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPublishPromptsAndRecordsRoute(t *testing.T) {
	f := newFixture(t)
	f.write(t, "draft", "# My First Post\nHello [[world]]\n")
	f.prompter.route = models.Route{Instance: "blog", Type: models.TypePost, Slug: "my-first-post"}

	res, err := f.pub.Publish(context.Background(), "draft", Options{})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if res.Cancelled || !res.Recorded {
		t.Errorf("unexpected result %+v", res)
	}

	if len(f.prompter.calls) != 1 {
		t.Fatalf("expected one prompt, got %d", len(f.prompter.calls))
	}
	req := f.prompter.calls[0]
	if req.Title != "My First Post" || req.DefaultSlug != "my-first-post" {
		t.Errorf("unexpected prompt request %+v", req)
	}
	if len(req.Instances) != 1 || req.Instances[0] != "blog" {
		t.Errorf("expected instance list [blog], got %v", req.Instances)
	}

	stored, ok := f.srv.Get("posts", "my-first-post")
	if !ok {
		t.Fatal("expected post on server")
	}
	md, _ := document.ExtractMarkdown(&stored)
	if strings.TrimSpace(md) != "Hello world" {
		t.Errorf("expected cleaned body, got %q", md)
	}

	note, err := f.store.Read("draft")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(note.Shares) != 1 || note.Shares[0] != "ghost:blog:post:my-first-post" {
		t.Errorf("expected share route recorded, got %v", note.Shares)
	}
}

func TestPublishUsesRecordedRouteWithoutPrompt(t *testing.T) {
	f := newFixture(t)
	f.write(t, "about", "---\n$share: [\"ghost:blog:page:about\"]\n---\n# About\nWho we are\n")

	res, err := f.pub.Publish(context.Background(), "about", Options{})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if res.Recorded {
		t.Error("expected existing route not to be rewritten")
	}
	if len(f.prompter.calls) != 0 {
		t.Error("expected no prompt for a recorded route")
	}
	if _, ok := f.srv.Get("pages", "about"); !ok {
		t.Error("expected page on server")
	}

	// Second publish updates in place.
	if _, err := f.pub.Publish(context.Background(), "about", Options{}); err != nil {
		t.Fatalf("second Publish error: %v", err)
	}
	calls := f.srv.Calls()
	if len(calls) != 4 || !strings.HasPrefix(calls[3], "PUT /pages/") {
		t.Errorf("expected create then update, got %v", calls)
	}
}

func TestPublishPrefixRoute(t *testing.T) {
	f := newFixture(t)
	f.write(t, "blog/pages/Contact Us", "# Contact\nmail me\n")

	res, err := f.pub.Publish(context.Background(), "blog/pages/Contact Us", Options{})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	want := models.Route{Instance: "blog", Type: models.TypePage, Slug: "contact-us"}
	if res.Route != want {
		t.Errorf("expected route %v, got %v", want, res.Route)
	}
	if len(f.prompter.calls) != 0 {
		t.Error("expected no prompt for a prefix match")
	}
}

func TestPublishRouteOverride(t *testing.T) {
	f := newFixture(t)
	f.write(t, "n", "---\n$share: [\"ghost:blog:post:old\"]\n---\n# N\nbody\n")
	override := models.Route{Instance: "blog", Type: models.TypePost, Slug: "new"}

	res, err := f.pub.Publish(context.Background(), "n", Options{Route: &override})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if !res.Recorded {
		t.Error("expected new route to be recorded")
	}
	note, _ := f.store.Read("n")
	if len(note.Shares) != 1 || note.Shares[0] != "ghost:blog:post:new" {
		t.Errorf("expected old ghost route replaced, got %v", note.Shares)
	}
}

func TestPublishNormalizesPromptedSlug(t *testing.T) {
	f := newFixture(t)
	f.write(t, "series", "# Series\nbody\n")
	f.prompter.route = models.Route{Instance: "blog", Type: models.TypePost, Slug: "My Post: Part 2"}

	want, err := document.Slugify("My Post: Part 2")
	if err != nil || want == "" {
		t.Fatalf("Slugify = %q, %v", want, err)
	}

	res, err := f.pub.Publish(context.Background(), "series", Options{})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if res.Route.Slug != want {
		t.Errorf("route slug = %q, want %q", res.Route.Slug, want)
	}
	if _, ok := f.srv.Get("posts", want); !ok {
		t.Fatalf("expected post stored under %q", want)
	}

	note, _ := f.store.Read("series")
	if len(note.Shares) != 1 {
		t.Fatalf("expected one share, got %v", note.Shares)
	}
	parsed, err := models.ParseRoute(note.Shares[0])
	if err != nil {
		t.Fatalf("recorded route %q does not parse: %v", note.Shares[0], err)
	}
	if parsed != res.Route {
		t.Errorf("parsed route = %+v, want %+v", parsed, res.Route)
	}

	// The second publish reads the recorded route and updates the same post.
	f.write(t, "series", "---\n$share: [\""+note.Shares[0]+"\"]\n---\n# Series\nmore\n")
	if _, err := f.pub.Publish(context.Background(), "series", Options{}); err != nil {
		t.Fatalf("second Publish error: %v", err)
	}
	if len(f.prompter.calls) != 1 {
		t.Errorf("expected a single prompt, got %d", len(f.prompter.calls))
	}
	creates := 0
	for _, c := range f.srv.Calls() {
		if strings.HasPrefix(c, "POST /posts") {
			creates++
		}
	}
	if creates != 1 {
		t.Errorf("expected a single create, got calls %v", f.srv.Calls())
	}
}

func TestPublishOverrideSlugWithoutLetters(t *testing.T) {
	f := newFixture(t)
	f.write(t, "n", "# N\nbody\n")
	override := models.Route{Instance: "blog", Type: models.TypePost, Slug: " ::: "}

	_, err := f.pub.Publish(context.Background(), "n", Options{Route: &override})
	if !apperr.Is(err, apperr.CodeFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
	if calls := f.srv.Calls(); len(calls) != 0 {
		t.Errorf("expected no remote calls, got %v", calls)
	}
}

func TestPublishCancelled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "n", "# N\nbody\n")
	f.prompter.cancel = true

	res, err := f.pub.Publish(context.Background(), "n", Options{})
	if err != nil {
		t.Fatalf("expected no error on cancel, got %v", err)
	}
	if !res.Cancelled {
		t.Error("expected cancelled result")
	}
	if len(f.srv.Requests()) != 0 {
		t.Errorf("expected no network calls, got %v", f.srv.Calls())
	}
}

func TestPublishPromptError(t *testing.T) {
	f := newFixture(t)
	f.write(t, "n", "# N\nbody\n")
	f.prompter.err = errors.New("terminal gone")

	if _, err := f.pub.Publish(context.Background(), "n", Options{}); err == nil || !strings.Contains(err.Error(), "terminal gone") {
		t.Fatalf("expected prompt error, got %v", err)
	}
}

func TestPublishWithoutPrompterNeedsRoute(t *testing.T) {
	f := newFixture(t)
	f.pub.Prompter = nil
	f.write(t, "n", "# N\nbody\n")

	_, err := f.pub.Publish(context.Background(), "n", Options{})
	if !apperr.Is(err, apperr.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestPublishUnknownInstance(t *testing.T) {
	f := newFixture(t)
	f.write(t, "n", "---\n$share: [\"ghost:elsewhere:post:n\"]\n---\n# N\nbody\n")

	_, err := f.pub.Publish(context.Background(), "n", Options{})
	if !apperr.Is(err, apperr.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if len(f.srv.Requests()) != 0 {
		t.Error("expected no network calls")
	}
}

func TestPublishMissingSecret(t *testing.T) {
	f := newFixture(t)
	f.pub.Provider = config.NewFileProvider(f.cfg, nil)
	f.write(t, "n", "---\n$share: [\"ghost:blog:post:n\"]\n---\n# N\nbody\n")

	_, err := f.pub.Publish(context.Background(), "n", Options{})
	if !apperr.Is(err, apperr.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestPublishFormatError(t *testing.T) {
	f := newFixture(t)
	f.write(t, "n", "---\n$share: [\"ghost:blog:post:n\"]\n---\nNo heading here\n")

	_, err := f.pub.Publish(context.Background(), "n", Options{})
	if !apperr.Is(err, apperr.CodeFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
	if len(f.srv.Requests()) != 0 {
		t.Error("expected no network calls")
	}
	note, _ := f.store.Read("n")
	if len(note.Shares) != 1 || note.Shares[0] != "ghost:blog:post:n" {
		t.Errorf("expected note untouched, got %v", note.Shares)
	}
}

func TestPublishUploadsImages(t *testing.T) {
	f := newFixture(t)
	f.write(t, "pics", "# Pics\n![a cat](img/cat.png)\n![remote](https://example.com/x.png)\n")
	if err := os.MkdirAll(filepath.Join(f.dir, "img"), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, "img", "cat.png"), []byte("\x89PNG\r\n\x1a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	route := models.Route{Instance: "blog", Type: models.TypePost, Slug: "pics"}

	res, err := f.pub.Publish(context.Background(), "pics", Options{Route: &route, UploadImages: true})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if len(res.Uploaded) != 1 {
		t.Fatalf("expected one upload, got %+v", res.Uploaded)
	}
	uploads := f.srv.Uploads()
	if len(uploads) != 1 || uploads[0].Filename != "cat.png" || uploads[0].ContentType != "image/png" {
		t.Errorf("unexpected uploads %+v", uploads)
	}

	stored, _ := f.srv.Get("posts", "pics")
	md, _ := document.ExtractMarkdown(&stored)
	if !strings.Contains(md, "]("+res.Uploaded[0].URL+")") {
		t.Errorf("expected local ref rewritten, got %q", md)
	}
	if !strings.Contains(md, "(https://example.com/x.png)") {
		t.Errorf("expected remote ref untouched, got %q", md)
	}
}

func TestPublishRemoteRejectionLeavesNote(t *testing.T) {
	f := newFixture(t)
	f.write(t, "n", "# N\nbody\n")
	f.srv.Seed("posts", models.Post{Title: "N", Slug: "n"})
	f.srv.OnLookup(func(res, slug string) { f.srv.Touch(res, slug) })
	route := models.Route{Instance: "blog", Type: models.TypePost, Slug: "n"}

	_, err := f.pub.Publish(context.Background(), "n", Options{Route: &route})
	if !apperr.Is(err, apperr.CodeRemoteRejection) {
		t.Fatalf("expected remote rejection, got %v", err)
	}
	note, _ := f.store.Read("n")
	if len(note.Shares) != 0 {
		t.Errorf("expected no route recorded on failure, got %v", note.Shares)
	}
}

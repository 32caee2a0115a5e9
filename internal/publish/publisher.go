// ABOUTME: Publish orchestration from a local note to a Ghost instance.
// ABOUTME: Resolves the share route, converts the note, upserts it, and records the route.
package publish

import (
	"context"
	"fmt"
	"path"

	"github.com/2389-research/ghostpost/internal/apperr"
	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/document"
	"github.com/2389-research/ghostpost/internal/ghost"
	"github.com/2389-research/ghostpost/internal/logging"
	"github.com/2389-research/ghostpost/internal/models"
	"github.com/2389-research/ghostpost/internal/storage"
)

// RouteRequest describes a note that needs a route chosen for it.
type RouteRequest struct {
	Note        string
	Title       string
	DefaultSlug string
	Instances   []string
}

// Prompter asks the user where a note should be published. ok is false when
// the user cancelled.
type Prompter interface {
	PromptRoute(ctx context.Context, req RouteRequest) (route models.Route, ok bool, err error)
}

// Client is the Admin API surface the publisher needs.
type Client interface {
	Authenticate() error
	Publish(ctx context.Context, ct models.ContentType, post *models.Post) (*models.Post, error)
	UploadImage(ctx context.Context, filename string, data []byte) (*models.Image, error)
}

// ClientFactory builds a client for a resolved instance.
type ClientFactory func(ic *config.InstanceConfig) Client

// GhostClients returns a factory producing Admin API clients that log through l.
func GhostClients(l logging.Logger) ClientFactory {
	return func(ic *config.InstanceConfig) Client {
		return ghost.FromInstance(ic, ghost.WithLogger(l))
	}
}

// Options adjusts a single publish.
type Options struct {
	Route        *models.Route // overrides any recorded or prompted route
	UploadImages bool          // upload local images even if the instance doesn't ask for it
}

// Result reports what a publish did.
type Result struct {
	Cancelled bool
	Route     models.Route
	Post      *models.Post
	Uploaded  []models.Image
	Recorded  bool // route was newly written to the note
}

// Publisher publishes notes. Every dependency is explicit.
type Publisher struct {
	Provider  config.Provider
	Notes     storage.NoteStore
	Prompter  Prompter // nil means non-interactive
	NewClient ClientFactory
	Logger    logging.Logger
}

func (p *Publisher) log() logging.Logger {
	if p.Logger == nil {
		return logging.NoOp()
	}
	return p.Logger
}

// Publish sends the named note to its Ghost instance.
func (p *Publisher) Publish(ctx context.Context, name string, opts Options) (*Result, error) {
	note, err := p.Notes.Read(name)
	if err != nil {
		return nil, err
	}

	route, recorded, ok, err := p.route(ctx, note, opts)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.log().Info("publish cancelled", "note", note.Name)
		return &Result{Cancelled: true}, nil
	}
	p.log().Info("publishing", "note", note.Name, "route", route.String())

	ic, err := config.Resolve(p.Provider, route.Instance)
	if err != nil {
		return nil, err
	}

	post, err := document.ConvertBody(note.Body, ic.Format)
	if err != nil {
		return nil, err
	}

	factory := p.NewClient
	if factory == nil {
		factory = GhostClients(p.log())
	}
	client := factory(ic)
	if err := client.Authenticate(); err != nil {
		return nil, err
	}

	result := &Result{Route: route}
	if opts.UploadImages || ic.UploadImages {
		body, uploaded, err := p.uploadImages(ctx, client, note)
		if err != nil {
			return nil, err
		}
		result.Uploaded = uploaded
		if len(uploaded) > 0 {
			if post, err = document.ConvertBody(body, ic.Format); err != nil {
				return nil, err
			}
		}
	}

	post.Slug = route.Slug
	published, err := client.Publish(ctx, route.Type, post)
	if err != nil {
		return nil, err
	}
	result.Post = published

	if recorded != route.String() {
		if err := p.Notes.SetShare(note.Name, route); err != nil {
			return nil, fmt.Errorf("published but failed to record route: %w", err)
		}
		result.Recorded = true
	}
	p.log().Info("published", "route", route.String(), "id", published.ID, "status", published.Status)
	return result, nil
}

// route picks the publish route. recorded is the route already stored in the
// note, if any. ok is false when a prompt was cancelled.
func (p *Publisher) route(ctx context.Context, note *models.Note, opts Options) (route models.Route, recorded string, ok bool, err error) {
	for _, share := range note.Shares {
		if models.IsRoute(share) {
			recorded = share
			break
		}
	}

	if opts.Route != nil {
		r, err := normalizeRoute(*opts.Route)
		return r, recorded, err == nil, err
	}
	if recorded != "" {
		r, err := models.ParseRoute(recorded)
		if err != nil {
			return models.Route{}, "", false, apperr.Format("%v", err)
		}
		return r, recorded, true, nil
	}
	if m, found := config.MatchPrefix(p.Provider, note.Name); found {
		slug, err := document.Slugify(m.Remainder)
		if err != nil || slug == "" {
			return models.Route{}, "", false, apperr.Format("cannot derive a slug from %q", m.Remainder)
		}
		return models.Route{Instance: m.Instance, Type: m.Type, Slug: slug}, "", true, nil
	}
	if p.Prompter == nil {
		return models.Route{}, "", false, apperr.Config("note %q has no ghost route; pass one explicitly", note.Name)
	}

	req := RouteRequest{Note: note.Name, Instances: p.Provider.InstanceNames()}
	title, _, perr := document.ParsePost(note.Body)
	if perr == nil {
		req.Title = title
	} else {
		title = path.Base(note.Name)
	}
	if s, err := document.Slugify(title); err == nil {
		req.DefaultSlug = s
	}

	r, ok, err := p.Prompter.PromptRoute(ctx, req)
	if err != nil || !ok {
		return models.Route{}, "", false, err
	}
	r, err = normalizeRoute(r)
	return r, "", err == nil, err
}

// normalizeRoute turns a hand-entered slug into the url slug Ghost stores, so
// the recorded route parses back and matches the post on the next publish.
func normalizeRoute(r models.Route) (models.Route, error) {
	s, err := document.Slugify(r.Slug)
	if err != nil || s == "" {
		return models.Route{}, apperr.Format("cannot derive a slug from %q", r.Slug)
	}
	r.Slug = s
	return r, nil
}

// uploadImages uploads every local image the note references and returns the
// body with those references rewritten to the uploaded URLs.
func (p *Publisher) uploadImages(ctx context.Context, client Client, note *models.Note) (string, []models.Image, error) {
	refs := document.ImageRefs(note.Body)
	if len(refs) == 0 {
		return note.Body, nil, nil
	}

	urls := make(map[string]string, len(refs))
	uploaded := make([]models.Image, 0, len(refs))
	for _, ref := range refs {
		data, err := p.Notes.ReadAttachment(note.Name, ref)
		if err != nil {
			return "", nil, err
		}
		img, err := client.UploadImage(ctx, path.Base(ref), data)
		if err != nil {
			return "", nil, err
		}
		p.log().Debug("uploaded image", "ref", ref, "url", img.URL)
		urls[ref] = img.URL
		uploaded = append(uploaded, *img)
	}
	return document.ReplaceImageRefs(note.Body, urls), uploaded, nil
}

package posts

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/richtext"
)

// State is the terminal state of one page build.
type State int

const (
	// StatePending means the document exists but has no publication date
	// yet. Only a placeholder is rendered.
	StatePending State = iota
	// StatePublished means every view field was computed.
	StatePublished
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePublished:
		return "published"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Section is one rendered content block.
type Section struct {
	Heading string
	HTML    string
}

// ViewModel holds everything the post page shows. It is rebuilt on every
// render.
type ViewModel struct {
	Title           string
	BannerURL       string
	Author          string
	FormattedDate   string
	PublishedAt     string // raw first publication timestamp
	ReadTimeMinutes int
	Sections        []Section
}

// Page is the result of building one slug. Post is nil while pending.
type Page struct {
	State State
	Slug  string
	Post  *ViewModel
}

// Finder looks posts up by slug.
type Finder interface {
	FindBySlug(ctx context.Context, slug string) (*Document, error)
}

// DateFormatter renders a publication timestamp.
type DateFormatter interface {
	Format(ts string) (string, error)
}

// HTMLRenderer converts a block body to sanitized HTML.
type HTMLRenderer interface {
	ToHTML(body []richtext.Node) string
}

// Builder assembles page view models. It keeps no per-build state, so one
// Builder serves concurrent builds.
type Builder struct {
	finder   Finder
	dates    DateFormatter
	renderer HTMLRenderer
	logger   *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuilderLogger sets the builder logger.
func WithBuilderLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder returns a Builder.
func NewBuilder(finder Finder, dates DateFormatter, renderer HTMLRenderer, opts ...BuilderOption) *Builder {
	b := &Builder{
		finder:   finder,
		dates:    dates,
		renderer: renderer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches slug and derives its view model. Errors from the finder are
// returned unchanged, so errors.Is(err, ErrNotFound) identifies a missing
// post. A bad publication date fails the build with a
// *dateformat.InvalidDateError in the chain.
func (b *Builder) Build(ctx context.Context, slug string) (*Page, error) {
	doc, err := b.finder.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !doc.Published() {
		b.logger.Debug("post pending", zap.String("slug", slug))
		return &Page{State: StatePending, Slug: doc.Slug}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	date, err := b.dates.Format(*doc.FirstPublicationDate)
	if err != nil {
		return nil, fmt.Errorf("posts: build %q: %w", slug, err)
	}

	sections := make([]Section, 0, len(doc.Content))
	for _, block := range doc.Content {
		sections = append(sections, Section{
			Heading: block.Heading,
			HTML:    b.renderer.ToHTML(block.Body),
		})
	}

	return &Page{
		State: StatePublished,
		Slug:  doc.Slug,
		Post: &ViewModel{
			Title:           doc.Title,
			BannerURL:       doc.BannerURL,
			Author:          doc.Author,
			FormattedDate:   date,
			PublishedAt:     *doc.FirstPublicationDate,
			ReadTimeMinutes: richtext.ReadTime(doc.Content),
			Sections:        sections,
		},
	}, nil
}

// BuildAll builds every slug with at most concurrency builds in flight and
// returns the pages in slug order. The first failure cancels the rest.
func (b *Builder) BuildAll(ctx context.Context, slugs []string, concurrency int) ([]*Page, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	pages := make([]*Page, len(slugs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, slug := range slugs {
		g.Go(func() error {
			page, err := b.Build(ctx, slug)
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

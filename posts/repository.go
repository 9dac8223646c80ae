package posts

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/eringen/spacetraveling/prismic"
)

// DefaultDocumentType is the CMS custom type holding posts.
const DefaultDocumentType = "posts"

// maxPages bounds ListAllSlugs against an upstream that never stops paging.
const maxPages = 1000

// CMS is the client boundary the repository consumes. prismic.Client and
// localcms.Client both satisfy it.
type CMS interface {
	GetByType(ctx context.Context, docType string, page int) (*prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error)
}

// Repository resolves posts through an injected CMS client. It does no
// caching of its own.
type Repository struct {
	cms     CMS
	docType string
	logger  *zap.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithDocumentType overrides the custom type name.
func WithDocumentType(name string) RepositoryOption {
	return func(r *Repository) {
		if name != "" {
			r.docType = name
		}
	}
}

// WithLogger sets the repository logger.
func WithLogger(l *zap.Logger) RepositoryOption {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRepository returns a Repository reading from cms.
func NewRepository(cms CMS, opts ...RepositoryOption) *Repository {
	r := &Repository{
		cms:     cms,
		docType: DefaultDocumentType,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindBySlug fetches one post. It returns ErrNotFound for an unknown slug,
// *UpstreamFetchError when the CMS call fails and ErrInvalidDocument when
// the document does not decode.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*Document, error) {
	if slug == "" {
		return nil, ErrNotFound
	}
	raw, err := r.cms.GetByUID(ctx, r.docType, slug)
	if errors.Is(err, prismic.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &UpstreamFetchError{Op: "get by uid", Slug: slug, Err: err}
	}
	return decodeDocument(raw)
}

// ListAllSlugs returns the slug of every post, in CMS order and without
// duplicates. An empty result is valid.
func (r *Repository) ListAllSlugs(ctx context.Context) ([]string, error) {
	slugs := []string{}
	seen := make(map[string]bool)
	for page := 1; page <= maxPages; page++ {
		resp, err := r.cms.GetByType(ctx, r.docType, page)
		if err != nil {
			return nil, &UpstreamFetchError{Op: "get by type", Err: err}
		}
		for _, doc := range resp.Results {
			if doc.UID == "" {
				r.logger.Warn("skipping document without uid", zap.String("id", doc.ID))
				continue
			}
			if seen[doc.UID] {
				continue
			}
			seen[doc.UID] = true
			slugs = append(slugs, doc.UID)
		}
		if len(resp.Results) == 0 || page >= resp.TotalPages {
			break
		}
	}
	r.logger.Debug("listed slugs", zap.Int("count", len(slugs)))
	return slugs, nil
}

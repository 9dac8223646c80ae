package posts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no post matches the slug.
	ErrNotFound = errors.New("posts: post not found")
	// ErrInvalidDocument means the CMS returned a document that does not
	// decode into a post.
	ErrInvalidDocument = errors.New("posts: invalid document")
)

// UpstreamFetchError wraps a failed CMS call.
type UpstreamFetchError struct {
	Op   string
	Slug string
	Err  error
}

func (e *UpstreamFetchError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("posts: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("posts: %s %q: %v", e.Op, e.Slug, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

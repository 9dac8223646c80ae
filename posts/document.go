// Package posts resolves blog posts from the CMS and turns them into page
// view models.
package posts

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

// Document is a post as stored in the CMS. It is a read-only snapshot; a
// new one is fetched for every build.
type Document struct {
	Slug                 string `validate:"required"`
	FirstPublicationDate *string
	Title                string `validate:"required"`
	BannerURL            string `validate:"omitempty,url"`
	Author               string
	Content              []richtext.Block `validate:"dive"`
}

// Published reports whether the document has a publication date.
func (d *Document) Published() bool {
	return d.FirstPublicationDate != nil && *d.FirstPublicationDate != ""
}

type postData struct {
	Title  string `json:"title"`
	Banner struct {
		URL string `json:"url"`
	} `json:"banner"`
	Author  string           `json:"author"`
	Content []richtext.Block `json:"content"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeDocument maps a raw CMS document onto a Document and validates it.
func decodeDocument(raw *prismic.Document) (*Document, error) {
	var data postData
	if len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, raw.UID, err)
		}
	}
	doc := &Document{
		Slug:                 raw.UID,
		FirstPublicationDate: raw.FirstPublicationDate,
		Title:                data.Title,
		BannerURL:            data.Banner.URL,
		Author:               data.Author,
		Content:              data.Content,
	}
	if doc.Content == nil {
		doc.Content = []richtext.Block{}
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, raw.UID, err)
	}
	return doc, nil
}

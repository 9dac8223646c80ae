// Package localcms serves Prismic-shaped documents from Markdown files on
// disk, so the site can be built and developed without a CMS repository.
//
// Documents live in <root>/<type>/*.md. Front matter carries the document
// fields; the Markdown body becomes the content blocks, one block per
// second-level heading:
//
//	---
//	uid: hello-space
//	title: Hello space
//	author: Joseph Oliveira
//	banner: https://images.prismic.io/spacetraveling/banner.png
//	first_publication_date: 2021-03-10T19:25:28+0000
//	---
//	## Intro
//	Hello **world**.
package localcms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

type frontMatter struct {
	UID                  string `yaml:"uid"`
	Title                string `yaml:"title"`
	Author               string `yaml:"author"`
	Banner               string `yaml:"banner"`
	FirstPublicationDate string `yaml:"first_publication_date"`
}

// documentData mirrors the JSON shape of a "posts" document in the CMS.
type documentData struct {
	Title  string `json:"title"`
	Banner struct {
		URL string `json:"url"`
	} `json:"banner"`
	Author  string           `json:"author"`
	Content []richtext.Block `json:"content"`
}

// Client reads documents from a directory tree. Files are read on every
// call, so edits show up on the next build without a restart.
type Client struct {
	root string
	md   goldmark.Markdown
}

// New returns a Client rooted at dir.
func New(dir string) *Client {
	return &Client{
		root: dir,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// GetByType returns every document of docType as a single page, ordered by
// file name. Pages past the first are empty.
func (c *Client) GetByType(ctx context.Context, docType string, page int) (*prismic.Response, error) {
	docs, err := c.load(ctx, docType)
	if err != nil {
		return nil, err
	}
	if page > 1 {
		docs = nil
	}
	if docs == nil {
		docs = []prismic.Document{}
	}
	return &prismic.Response{
		Page:             page,
		ResultsPerPage:   len(docs),
		TotalResultsSize: len(docs),
		TotalPages:       1,
		Results:          docs,
	}, nil
}

// GetByUID returns the document of docType with the given uid, or
// prismic.ErrNotFound.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error) {
	docs, err := c.load(ctx, docType)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].UID == uid {
			return &docs[i], nil
		}
	}
	return nil, prismic.ErrNotFound
}

func (c *Client) load(ctx context.Context, docType string) ([]prismic.Document, error) {
	if docType == "" || strings.ContainsAny(docType, `/\.`) {
		return nil, fmt.Errorf("localcms: invalid document type %q", docType)
	}
	paths, err := filepath.Glob(filepath.Join(c.root, docType, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("localcms: list %s: %w", docType, err)
	}
	sort.Strings(paths)

	docs := make([]prismic.Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := c.readDocument(path, docType)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *Client) readDocument(path, docType string) (prismic.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return prismic.Document{}, fmt.Errorf("localcms: read %s: %w", path, err)
	}
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return prismic.Document{}, fmt.Errorf("localcms: front matter %s: %w", path, err)
	}

	uid := strings.TrimSpace(fm.UID)
	if uid == "" {
		uid = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	data := documentData{
		Title:   fm.Title,
		Author:  fm.Author,
		Content: c.Convert(body),
	}
	data.Banner.URL = fm.Banner
	encoded, err := json.Marshal(data)
	if err != nil {
		return prismic.Document{}, fmt.Errorf("localcms: encode %s: %w", path, err)
	}

	doc := prismic.Document{
		ID:   docType + "/" + uid,
		UID:  uid,
		Type: docType,
		Data: encoded,
	}
	if ts := strings.TrimSpace(fm.FirstPublicationDate); ts != "" {
		doc.FirstPublicationDate = &ts
	}
	return doc, nil
}

// Package richtext models Prismic structured text and converts it into
// sanitized HTML, plain text and reading-time estimates.
package richtext

// NodeType identifies a block-level structured text node.
type NodeType string

const (
	Paragraph    NodeType = "paragraph"
	Heading1     NodeType = "heading1"
	Heading2     NodeType = "heading2"
	Heading3     NodeType = "heading3"
	Heading4     NodeType = "heading4"
	Heading5     NodeType = "heading5"
	Heading6     NodeType = "heading6"
	Preformatted NodeType = "preformatted"
	ListItem     NodeType = "list-item"
	OListItem    NodeType = "o-list-item"
	Image        NodeType = "image"
	Embed        NodeType = "embed"
)

// SpanType identifies an inline formatting span.
type SpanType string

const (
	Strong    SpanType = "strong"
	Em        SpanType = "em"
	Hyperlink SpanType = "hyperlink"
	Label     SpanType = "label"
)

// Span marks a range of a node's text. Start and End are UTF-16 code unit
// offsets, the unit the CMS uses when it emits them.
type Span struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Type  SpanType `json:"type"`
	Data  SpanData `json:"data,omitempty"`
}

// SpanData carries the payload of hyperlink and label spans.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Dimensions of an image node.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// OEmbed is the provider data attached to an embed node.
type OEmbed struct {
	EmbedURL string `json:"embed_url"`
	Title    string `json:"title,omitempty"`
	HTML     string `json:"html,omitempty"`
}

// Node is one structured text element. A node without a type is a paragraph.
type Node struct {
	Type       NodeType    `json:"type,omitempty"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	OEmbed     *OEmbed     `json:"oembed,omitempty"`
}

// Kind returns the node type, defaulting to Paragraph.
func (n Node) Kind() NodeType {
	if n.Type == "" {
		return Paragraph
	}
	return n.Type
}

// Block is a run of nodes grouped under one heading. Order is significant.
type Block struct {
	Heading string `json:"heading"`
	Body    []Node `json:"body"`
}

package localcms

import (
	"strings"
	"unicode/utf16"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/eringen/spacetraveling/richtext"
)

// Convert parses Markdown source into content blocks. Every level-2 heading
// opens a new block; anything before the first one goes into a block with an
// empty heading, which is dropped when it has no body.
func (c *Client) Convert(source []byte) []richtext.Block {
	doc := c.md.Parser().Parse(text.NewReader(source))

	var blocks []richtext.Block
	cur := richtext.Block{}
	started := false
	flush := func() {
		if started || len(cur.Body) > 0 {
			blocks = append(blocks, cur)
		}
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 2 {
			flush()
			ib := newInlineBuilder(source)
			ib.walkChildren(h)
			cur = richtext.Block{Heading: ib.text()}
			started = true
			continue
		}
		cur.Body = append(cur.Body, convertBlock(n, source)...)
	}
	flush()

	if blocks == nil {
		blocks = []richtext.Block{}
	}
	return blocks
}

var headingTypes = [...]richtext.NodeType{
	richtext.Heading1, richtext.Heading1, richtext.Heading2, richtext.Heading3,
	richtext.Heading4, richtext.Heading5, richtext.Heading6,
}

func convertBlock(n ast.Node, source []byte) []richtext.Node {
	switch v := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if img := soleImage(n); img != nil {
			return []richtext.Node{{
				Type: richtext.Image,
				URL:  string(img.Destination),
				Alt:  plainText(img, source),
			}}
		}
		return []richtext.Node{inlineNode(richtext.Paragraph, n, source)}
	case *ast.Heading:
		level := v.Level
		if level < 1 || level > 6 {
			level = 1
		}
		return []richtext.Node{inlineNode(headingTypes[level], n, source)}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return []richtext.Node{{Type: richtext.Preformatted, Text: codeText(n, source)}}
	case *ast.List:
		kind := richtext.ListItem
		if v.IsOrdered() {
			kind = richtext.OListItem
		}
		var out []richtext.Node
		for item := v.FirstChild(); item != nil; item = item.NextSibling() {
			ib := newInlineBuilder(source)
			for child := item.FirstChild(); child != nil; child = child.NextSibling() {
				if ib.len() > 0 {
					ib.write("\n")
				}
				ib.walkChildren(child)
			}
			out = append(out, ib.node(kind))
		}
		return out
	case *ast.Blockquote:
		var out []richtext.Node
		for child := v.FirstChild(); child != nil; child = child.NextSibling() {
			out = append(out, convertBlock(child, source)...)
		}
		return out
	}
	return nil
}

// soleImage returns the image when it is the only inline content of a
// paragraph.
func soleImage(n ast.Node) *ast.Image {
	if n.ChildCount() != 1 {
		return nil
	}
	img, _ := n.FirstChild().(*ast.Image)
	return img
}

func inlineNode(kind richtext.NodeType, n ast.Node, source []byte) richtext.Node {
	ib := newInlineBuilder(source)
	ib.walkChildren(n)
	return ib.node(kind)
}

func plainText(n ast.Node, source []byte) string {
	ib := newInlineBuilder(source)
	ib.walkChildren(n)
	return ib.text()
}

func codeText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimRight(b.String(), "\n")
}

// inlineBuilder flattens inline Markdown into text plus spans. Offsets are
// counted in UTF-16 code units to match the CMS representation.
type inlineBuilder struct {
	source []byte
	buf    strings.Builder
	units  int
	spans  []richtext.Span
}

func newInlineBuilder(source []byte) *inlineBuilder {
	return &inlineBuilder{source: source}
}

func (b *inlineBuilder) len() int { return b.units }

func (b *inlineBuilder) text() string { return b.buf.String() }

func (b *inlineBuilder) write(s string) {
	b.buf.WriteString(s)
	b.units += len(utf16.Encode([]rune(s)))
}

func (b *inlineBuilder) node(kind richtext.NodeType) richtext.Node {
	return richtext.Node{Type: kind, Text: b.text(), Spans: b.spans}
}

func (b *inlineBuilder) walkChildren(n ast.Node) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		b.walk(child)
	}
}

// wrap records a span over whatever the children of n write.
func (b *inlineBuilder) wrap(n ast.Node, typ richtext.SpanType, data richtext.SpanData) {
	start := b.units
	idx := len(b.spans)
	b.spans = append(b.spans, richtext.Span{})
	b.walkChildren(n)
	if b.units == start {
		b.spans = append(b.spans[:idx], b.spans[idx+1:]...)
		return
	}
	b.spans[idx] = richtext.Span{Start: start, End: b.units, Type: typ, Data: data}
}

func (b *inlineBuilder) walk(n ast.Node) {
	switch v := n.(type) {
	case *ast.Text:
		b.write(string(v.Segment.Value(b.source)))
		switch {
		case v.HardLineBreak():
			b.write("\n")
		case v.SoftLineBreak():
			b.write(" ")
		}
	case *ast.String:
		b.write(string(v.Value))
	case *ast.CodeSpan:
		b.walkChildren(v)
	case *ast.Emphasis:
		typ := richtext.Em
		if v.Level >= 2 {
			typ = richtext.Strong
		}
		b.wrap(v, typ, richtext.SpanData{})
	case *ast.Link:
		b.wrap(v, richtext.Hyperlink, linkData(string(v.Destination)))
	case *ast.AutoLink:
		start := b.units
		label := string(v.Label(b.source))
		b.write(label)
		dest := string(v.URL(b.source))
		if v.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(dest, "mailto:") {
			dest = "mailto:" + dest
		}
		b.spans = append(b.spans, richtext.Span{
			Start: start, End: b.units, Type: richtext.Hyperlink,
			Data: richtext.SpanData{LinkType: "Web", URL: dest},
		})
	case *ast.Image:
		b.walkChildren(v)
	case *ast.RawHTML:
		// Raw HTML is dropped; only its surrounding text survives.
	default:
		b.walkChildren(n)
	}
}

// linkData turns a Markdown link destination into span data. "post:<uid>"
// links to another post document.
func linkData(dest string) richtext.SpanData {
	if uid, ok := strings.CutPrefix(dest, "post:"); ok {
		return richtext.SpanData{LinkType: "Document", UID: uid, Type: "posts"}
	}
	return richtext.SpanData{LinkType: "Web", URL: dest}
}

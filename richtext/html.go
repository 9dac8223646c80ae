package richtext

import (
	"html"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/microcosm-cc/bluemonday"
)

var classPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var headingTags = map[NodeType]string{
	Heading1: "h1",
	Heading2: "h2",
	Heading3: "h3",
	Heading4: "h4",
	Heading5: "h5",
	Heading6: "h6",
}

// LinkResolver maps a hyperlink span to an href. Returning "" drops the link
// and keeps its text.
type LinkResolver func(SpanData) string

// Renderer converts structured text into HTML restricted to a fixed
// allow-list of tags and attributes. A Renderer is safe for concurrent use.
type Renderer struct {
	policy  *bluemonday.Policy
	resolve LinkResolver
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLinkResolver sets how document links are turned into URLs. Web links
// always use their own URL.
func WithLinkResolver(fn LinkResolver) Option {
	return func(r *Renderer) {
		r.resolve = fn
	}
}

// NewRenderer creates a Renderer with the default sanitizer policy.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		policy:  newPolicy(),
		resolve: func(SpanData) string { return "" },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "ul", "ol", "li", "strong", "em", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("class").Matching(classPattern).OnElements("p", "span")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("img")
	p.AllowURLSchemes("http", "https", "mailto", "tel")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	return p
}

// ToHTML renders body as an HTML fragment. Nodes of unknown type and links or
// images with unsafe URLs render nothing.
func (r *Renderer) ToHTML(body []Node) string {
	var buf strings.Builder
	for i := 0; i < len(body); {
		kind := body[i].Kind()
		if kind == ListItem || kind == OListItem {
			tag := "ul"
			if kind == OListItem {
				tag = "ol"
			}
			buf.WriteString("<" + tag + ">")
			for ; i < len(body) && body[i].Kind() == kind; i++ {
				buf.WriteString("<li>")
				r.writeInline(&buf, body[i])
				buf.WriteString("</li>")
			}
			buf.WriteString("</" + tag + ">")
			continue
		}
		r.writeBlock(&buf, body[i])
		i++
	}
	return r.policy.Sanitize(buf.String())
}

// Sanitize applies the renderer's allow-list policy to an HTML fragment.
func (r *Renderer) Sanitize(fragment string) string {
	return r.policy.Sanitize(fragment)
}

func (r *Renderer) writeBlock(buf *strings.Builder, n Node) {
	kind := n.Kind()
	switch {
	case kind == Paragraph:
		buf.WriteString("<p>")
		r.writeInline(buf, n)
		buf.WriteString("</p>")
	case kind == Preformatted:
		buf.WriteString("<pre>")
		r.writeInline(buf, n)
		buf.WriteString("</pre>")
	case headingTags[kind] != "":
		tag := headingTags[kind]
		buf.WriteString("<" + tag + ">")
		r.writeInline(buf, n)
		buf.WriteString("</" + tag + ">")
	case kind == Image:
		src := safeURL(n.URL)
		if src == "" {
			return
		}
		buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(n.Alt) + `"`)
		if n.Dimensions != nil && n.Dimensions.Width > 0 && n.Dimensions.Height > 0 {
			buf.WriteString(` width="` + strconv.Itoa(n.Dimensions.Width) + `" height="` + strconv.Itoa(n.Dimensions.Height) + `"`)
		}
		buf.WriteString("/></p>")
	case kind == Embed:
		if n.OEmbed == nil {
			return
		}
		href := safeURL(n.OEmbed.EmbedURL)
		if href == "" {
			return
		}
		label := n.OEmbed.Title
		if label == "" {
			label = n.OEmbed.EmbedURL
		}
		buf.WriteString(`<p class="block-embed"><a href="` + href + `">` + html.EscapeString(label) + `</a></p>`)
	}
}

// span is a validated span with its resolved href.
type span struct {
	Span
	href string
}

// writeInline writes n's text with its spans applied. Text is cut at every
// span boundary; for each piece, open tags no longer covering it are closed
// and missing ones opened, so crossing spans still nest correctly.
func (r *Renderer) writeInline(buf *strings.Builder, n Node) {
	units := utf16.Encode([]rune(n.Text))
	spans := r.validSpans(n.Spans, len(units))

	points := []int{0, len(units)}
	for _, s := range spans {
		points = append(points, s.Start, s.End)
	}
	sort.Ints(points)

	var open []int
	for k := 0; k+1 < len(points); k++ {
		from, to := points[k], points[k+1]
		if from == to {
			continue
		}
		covers := func(i int) bool { return spans[i].Start <= from && spans[i].End >= to }

		keep := 0
		for keep < len(open) && covers(open[keep]) {
			keep++
		}
		for j := len(open) - 1; j >= keep; j-- {
			buf.WriteString(closeTag(spans[open[j]]))
		}
		open = open[:keep]

		for i := range spans {
			if covers(i) && !contains(open, i) {
				buf.WriteString(openTag(spans[i]))
				open = append(open, i)
			}
		}
		writeText(buf, string(utf16.Decode(units[from:to])))
	}
	for j := len(open) - 1; j >= 0; j-- {
		buf.WriteString(closeTag(spans[open[j]]))
	}
}

func (r *Renderer) validSpans(in []Span, length int) []span {
	out := make([]span, 0, len(in))
	for _, s := range in {
		if s.Start < 0 || s.End > length || s.End <= s.Start {
			continue
		}
		v := span{Span: s}
		switch s.Type {
		case Strong, Em:
		case Label:
			if !classPattern.MatchString(s.Data.Label) {
				continue
			}
		case Hyperlink:
			v.href = r.linkURL(s.Data)
			if v.href == "" {
				continue
			}
		default:
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End > out[j].End
	})
	return out
}

func (r *Renderer) linkURL(d SpanData) string {
	if d.URL != "" {
		return safeURL(d.URL)
	}
	return safeURL(r.resolve(d))
}

func openTag(s span) string {
	switch s.Type {
	case Strong:
		return "<strong>"
	case Em:
		return "<em>"
	case Hyperlink:
		return `<a href="` + s.href + `">`
	case Label:
		return `<span class="` + s.Data.Label + `">`
	}
	return ""
}

func closeTag(s span) string {
	switch s.Type {
	case Strong:
		return "</strong>"
	case Em:
		return "</em>"
	case Hyperlink:
		return "</a>"
	case Label:
		return "</span>"
	}
	return ""
}

func writeText(buf *strings.Builder, s string) {
	buf.WriteString(strings.ReplaceAll(html.EscapeString(s), "\n", "<br/>"))
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// safeURL validates a URL for use in an HTML attribute and returns it
// escaped, or "" when the scheme is not allowed.
func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		if strings.HasPrefix(val, "//") {
			return ""
		}
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

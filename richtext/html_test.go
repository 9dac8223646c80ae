package richtext

import (
	"strings"
	"testing"
)

func TestToHTMLParagraphs(t *testing.T) {
	r := NewRenderer()
	tests := []struct {
		name string
		body []Node
		want string
	}{
		{"plain", []Node{{Text: "Hello world"}}, "<p>Hello world</p>"},
		{"two paragraphs", []Node{{Text: "one"}, {Type: Paragraph, Text: "two"}}, "<p>one</p><p>two</p>"},
		{"heading", []Node{{Type: Heading2, Text: "Sub"}}, "<h2>Sub</h2>"},
		{"preformatted", []Node{{Type: Preformatted, Text: "x := 1"}}, "<pre>x := 1</pre>"},
		{"line break", []Node{{Text: "a\nb"}}, "<p>a<br/>b</p>"},
		{"empty body", nil, ""},
	}
	for _, tt := range tests {
		got := r.ToHTML(tt.body)
		if got != tt.want {
			t.Errorf("%s: ToHTML = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestToHTMLSpans(t *testing.T) {
	r := NewRenderer()
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			"strong",
			Node{Text: "Hello world", Spans: []Span{{Start: 0, End: 5, Type: Strong}}},
			"<p><strong>Hello</strong> world</p>",
		},
		{
			"nested",
			Node{Text: "bold and italic", Spans: []Span{{Start: 9, End: 15, Type: Em}, {Start: 0, End: 15, Type: Strong}}},
			"<p><strong>bold and <em>italic</em></strong></p>",
		},
		{
			"crossing",
			Node{Text: "abcdef", Spans: []Span{{Start: 0, End: 4, Type: Strong}, {Start: 2, End: 6, Type: Em}}},
			"<p><strong>ab<em>cd</em></strong><em>ef</em></p>",
		},
		{
			"hyperlink",
			Node{Text: "visit site", Spans: []Span{{Start: 6, End: 10, Type: Hyperlink, Data: SpanData{LinkType: "Web", URL: "https://example.com"}}}},
			`<p>visit <a href="https://example.com">site</a></p>`,
		},
		{
			"unsafe hyperlink keeps text",
			Node{Text: "visit site", Spans: []Span{{Start: 6, End: 10, Type: Hyperlink, Data: SpanData{URL: "javascript:alert(1)"}}}},
			"<p>visit site</p>",
		},
		{
			"out of range span dropped",
			Node{Text: "short", Spans: []Span{{Start: 2, End: 40, Type: Strong}}},
			"<p>short</p>",
		},
		{
			"utf16 offsets",
			Node{Text: "😀 hi there", Spans: []Span{{Start: 3, End: 5, Type: Strong}}},
			"<p>😀 <strong>hi</strong> there</p>",
		},
	}
	for _, tt := range tests {
		got := r.ToHTML([]Node{tt.node})
		if got != tt.want {
			t.Errorf("%s: ToHTML = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestToHTMLLists(t *testing.T) {
	r := NewRenderer()
	body := []Node{
		{Type: ListItem, Text: "one"},
		{Type: ListItem, Text: "two"},
		{Type: OListItem, Text: "first"},
		{Text: "after"},
	}
	want := "<ul><li>one</li><li>two</li></ul><ol><li>first</li></ol><p>after</p>"
	if got := r.ToHTML(body); got != want {
		t.Errorf("ToHTML = %q, want %q", got, want)
	}
}

func TestToHTMLDocumentLinkResolver(t *testing.T) {
	r := NewRenderer(WithLinkResolver(func(d SpanData) string {
		if d.LinkType == "Document" && d.UID != "" {
			return "/post/" + d.UID + "/"
		}
		return ""
	}))
	node := Node{Text: "see other", Spans: []Span{{Start: 4, End: 9, Type: Hyperlink, Data: SpanData{LinkType: "Document", UID: "other", Type: "posts"}}}}
	want := `<p>see <a href="/post/other/">other</a></p>`
	if got := r.ToHTML([]Node{node}); got != want {
		t.Errorf("ToHTML = %q, want %q", got, want)
	}
}

func TestToHTMLImage(t *testing.T) {
	r := NewRenderer()
	got := r.ToHTML([]Node{{Type: Image, URL: "https://images.prismic.io/space/banner.png", Alt: "Banner", Dimensions: &Dimensions{Width: 800, Height: 400}}})
	for _, want := range []string{`<p class="block-img">`, `src="https://images.prismic.io/space/banner.png"`, `alt="Banner"`, `width="800"`} {
		if !strings.Contains(got, want) {
			t.Errorf("ToHTML image = %q, missing %q", got, want)
		}
	}

	got = r.ToHTML([]Node{{Type: Image, URL: "javascript:alert(1)", Alt: "x"}})
	if got != "" {
		t.Errorf("unsafe image should render nothing, got %q", got)
	}
}

func TestToHTMLEmbedNeverEmitsProviderHTML(t *testing.T) {
	r := NewRenderer()
	got := r.ToHTML([]Node{{Type: Embed, OEmbed: &OEmbed{
		EmbedURL: "https://www.youtube.com/watch?v=abc",
		Title:    "Launch",
		HTML:     `<iframe src="https://evil.example"></iframe><script>alert(1)</script>`,
	}}})
	if strings.Contains(got, "<iframe") || strings.Contains(got, "<script") {
		t.Errorf("embed leaked provider HTML: %q", got)
	}
	if !strings.Contains(got, ">Launch</a>") {
		t.Errorf("embed should link to the embed URL: %q", got)
	}
}

func TestToHTMLUnknownNodeRendersNothing(t *testing.T) {
	r := NewRenderer()
	if got := r.ToHTML([]Node{{Type: "mystery", Text: "boo"}}); got != "" {
		t.Errorf("unknown node rendered %q", got)
	}
}

func TestToHTMLEscapesText(t *testing.T) {
	r := NewRenderer()
	got := r.ToHTML([]Node{{Text: `<script>alert("x")</script><img src=x onerror=alert(1)>`}})
	if strings.Contains(got, "<script") || strings.Contains(got, "<img") {
		t.Errorf("ToHTML emitted markup from text: %q", got)
	}
}

func TestToHTMLIdempotentUnderSanitizer(t *testing.T) {
	r := NewRenderer()
	body := []Node{
		{Type: Heading3, Text: "Title"},
		{Text: "Hello world", Spans: []Span{{Start: 0, End: 5, Type: Strong}, {Start: 6, End: 11, Type: Em}}},
		{Type: ListItem, Text: "item"},
	}
	out := r.ToHTML(body)
	if again := r.Sanitize(out); again != out {
		t.Errorf("Sanitize(ToHTML) = %q, want %q", again, out)
	}
}

func TestSanitizeStripsDisallowedTags(t *testing.T) {
	r := NewRenderer()
	got := r.Sanitize(`<p onclick="x()">hi</p><script>alert(1)</script><iframe src="https://e.x"></iframe>`)
	if got != "<p>hi</p>" {
		t.Errorf("Sanitize = %q, want %q", got, "<p>hi</p>")
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/a?b=1&c=2", "https://example.com/a?b=1&amp;c=2"},
		{"/post/other/", "/post/other/"},
		{"#section", "#section"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"javascript:alert(1)", ""},
		{"//evil.example", ""},
		{"relative/path", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := safeURL(tt.in); got != tt.want {
			t.Errorf("safeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

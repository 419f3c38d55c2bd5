package glpi

import (
	"bytes"
	stdhtml "html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedTags is the element allow-list for rich-text timeline content.
var allowedTags = map[string]bool{
	"p": true, "br": true, "strong": true, "b": true, "em": true, "i": true,
	"a": true, "span": true, "ul": true, "ol": true, "li": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "th": true,
	"td": true, "img": true,
}

// allowedAttrs maps an allowed element to the attributes it may keep.
var allowedAttrs = map[string][]string{
	"a":    {"href", "target", "rel"},
	"span": {"style"},
	"img":  {"src", "alt", "width", "height"},
	"td":   {"colspan", "rowspan"},
	"th":   {"colspan", "rowspan"},
}

// Sanitizer converts GLPI rich-text fields into plain text or a restricted
// safe-HTML subset.
type Sanitizer struct {
	strict *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{strict: bluemonday.StrictPolicy()}
}

// DecodeEntities reverses the HTML-entity encoding GLPI applies to stored
// rich text (&#60; back to <, &amp; back to &, and so on).
func (s *Sanitizer) DecodeEntities(raw string) string {
	return stdhtml.UnescapeString(raw)
}

// StripHTML decodes entities and discards all markup, returning trimmed
// plain text. Used for the ticket title.
func (s *Sanitizer) StripHTML(raw string) string {
	decoded := s.DecodeEntities(raw)
	stripped := s.strict.Sanitize(decoded)
	return strings.TrimSpace(stdhtml.UnescapeString(stripped))
}

// SanitizeHTML decodes entities, parses the result and rebuilds a new tree
// keeping only allow-listed elements and attributes. Disallowed elements are
// unwrapped rather than dropped, so their text content survives. Anchors
// lose javascript: hrefs and always open in a new browsing context.
func (s *Sanitizer) SanitizeHTML(raw string) string {
	decoded := s.DecodeEntities(raw)
	doc, err := html.Parse(strings.NewReader(decoded))
	if err != nil {
		return ""
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if body := findBody(doc); body != nil {
		copySanitized(body, container)
	}

	var buf bytes.Buffer
	for child := container.FirstChild; child != nil; child = child.NextSibling {
		html.Render(&buf, child)
	}
	return buf.String()
}

func findBody(node *html.Node) *html.Node {
	if node.Type == html.ElementNode && node.DataAtom == atom.Body {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if body := findBody(child); body != nil {
			return body
		}
	}
	return nil
}

func copySanitized(src, dst *html.Node) {
	for child := src.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			dst.AppendChild(&html.Node{Type: html.TextNode, Data: child.Data})
		case html.ElementNode:
			name := strings.ToLower(child.Data)
			if !allowedTags[name] {
				// Unwrap: keep the children, drop the element itself.
				copySanitized(child, dst)
				continue
			}
			clean := &html.Node{Type: html.ElementNode, Data: name, DataAtom: child.DataAtom}
			for _, attr := range allowedAttrs[name] {
				val, ok := findAttr(child, attr)
				if !ok || val == "" {
					continue
				}
				if name == "a" && attr == "href" && isJavascriptURL(val) {
					continue
				}
				clean.Attr = append(clean.Attr, html.Attribute{Key: attr, Val: val})
			}
			if name == "a" {
				setAttr(clean, "target", "_blank")
			}
			copySanitized(child, clean)
			dst.AppendChild(clean)
		}
	}
}

func findAttr(node *html.Node, key string) (string, bool) {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val, true
		}
	}
	return "", false
}

func setAttr(node *html.Node, key, val string) {
	for i, attr := range node.Attr {
		if attr.Key == key {
			node.Attr[i].Val = val
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: val})
}

func isJavascriptURL(val string) bool {
	trimmed := strings.TrimLeftFunc(val, unicode.IsSpace)
	return strings.HasPrefix(strings.ToLower(trimmed), "javascript:")
}

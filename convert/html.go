package convert

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/glossia"
)

// skipTags are elements whose content never reaches the Markdown output.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"template": true,
	"iframe":   true,
	"svg":      true,
}

// dataURIRe matches inline base64 image sources.
var dataURIRe = regexp.MustCompile(`^data:image/(\w+);base64,(.+)$`)

// HTMLConverter turns HTML documents into Markdown locally. Inline
// base64 images are extracted into numbered blobs and replaced with
// ./imgN.png placeholders; images referenced by URL keep their source.
type HTMLConverter struct{}

// NewHTMLConverter creates a local HTML to Markdown converter.
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{}
}

// htmlRender accumulates Markdown output during the document walk.
type htmlRender struct {
	sb     strings.Builder
	images []glossia.ImageBlob
}

// Convert implements glossia.Converter for HTML documents.
func (c *HTMLConverter) Convert(_ context.Context, data []byte, _ glossia.DocumentFormat) (*glossia.ConversionResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &glossia.ConversionError{
			Format:  glossia.FormatHTML,
			Message: "parsing HTML",
			Cause:   err,
		}
	}

	r := &htmlRender{}
	root := doc.Find("body")
	if root.Length() > 0 {
		for _, n := range root.Nodes {
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				r.renderBlock(child)
			}
		}
	} else {
		for _, n := range doc.Selection.Nodes {
			r.renderBlock(n)
		}
	}

	markdown := tidyMarkdown(r.sb.String())
	anchorImages(markdown, r.images)

	return &glossia.ConversionResult{
		Markdown: markdown,
		Images:   r.images,
	}, nil
}

// renderBlock emits a node as block-level Markdown.
func (r *htmlRender) renderBlock(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(collapseSpace(n.Data)); text != "" {
			r.sb.WriteString(text)
			r.sb.WriteString("\n\n")
		}
		return
	case html.ElementNode:
		// handled below
	default:
		return
	}

	tag := n.Data
	if skipTags[tag] {
		return
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(tag[1] - '0')
		r.sb.WriteString(strings.Repeat("#", level))
		r.sb.WriteByte(' ')
		r.sb.WriteString(strings.TrimSpace(r.inlineText(n)))
		r.sb.WriteString("\n\n")

	case "p":
		if text := strings.TrimSpace(r.inlineText(n)); text != "" {
			r.sb.WriteString(text)
			r.sb.WriteString("\n\n")
		}

	case "ul":
		r.renderList(n, false)
	case "ol":
		r.renderList(n, true)

	case "blockquote":
		var inner htmlRender
		inner.images = r.images
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			inner.renderBlock(child)
		}
		r.images = inner.images
		for _, line := range strings.Split(strings.TrimSpace(inner.sb.String()), "\n") {
			r.sb.WriteString("> ")
			r.sb.WriteString(line)
			r.sb.WriteByte('\n')
		}
		r.sb.WriteByte('\n')

	case "pre":
		r.sb.WriteString("```\n")
		r.sb.WriteString(strings.TrimRight(rawText(n), "\n"))
		r.sb.WriteString("\n```\n\n")

	case "table":
		r.renderTable(n)

	case "hr":
		r.sb.WriteString("---\n\n")

	case "br":
		r.sb.WriteByte('\n')

	case "img":
		if md := r.renderImage(n); md != "" {
			r.sb.WriteString(md)
			r.sb.WriteString("\n\n")
		}

	case "li", "tr", "td", "th", "thead", "tbody":
		// reached only with malformed nesting; render children as blocks
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			r.renderBlock(child)
		}

	default:
		// div, section, article, main, body fragments and anything
		// unrecognized: descend. Inline islands get their own paragraph.
		if isInlineTag(tag) {
			if text := strings.TrimSpace(r.inlineText(n)); text != "" {
				r.sb.WriteString(text)
				r.sb.WriteString("\n\n")
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			r.renderBlock(child)
		}
	}
}

// renderList emits ul/ol children as Markdown list items.
func (r *htmlRender) renderList(n *html.Node, ordered bool) {
	item := 0
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode || child.Data != "li" {
			continue
		}
		item++
		if ordered {
			fmt.Fprintf(&r.sb, "%d. ", item)
		} else {
			r.sb.WriteString("- ")
		}
		r.sb.WriteString(strings.TrimSpace(r.inlineText(child)))
		r.sb.WriteByte('\n')
	}
	if item > 0 {
		r.sb.WriteByte('\n')
	}
}

// renderTable emits a table as a Markdown pipe table. The first row
// becomes the header.
func (r *htmlRender) renderTable(n *html.Node) {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			switch child.Data {
			case "tr":
				var cells []string
				for cell := child.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						cells = append(cells, strings.TrimSpace(r.inlineText(cell)))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			case "thead", "tbody", "tfoot":
				walk(child)
			}
		}
	}
	walk(n)

	if len(rows) == 0 {
		return
	}

	writeRow := func(cells []string) {
		r.sb.WriteString("| ")
		r.sb.WriteString(strings.Join(cells, " | "))
		r.sb.WriteString(" |\n")
	}

	writeRow(rows[0])
	sep := make([]string, len(rows[0]))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range rows[1:] {
		writeRow(row)
	}
	r.sb.WriteByte('\n')
}

// inlineText renders a node's content as inline Markdown.
func (r *htmlRender) inlineText(n *html.Node) string {
	var sb strings.Builder
	r.renderInline(n, &sb)
	return sb.String()
}

// renderInline walks child nodes emitting inline Markdown into sb.
func (r *htmlRender) renderInline(n *html.Node, sb *strings.Builder) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			sb.WriteString(collapseSpace(child.Data))
		case html.ElementNode:
			tag := child.Data
			if skipTags[tag] {
				continue
			}
			switch tag {
			case "strong", "b":
				sb.WriteString("**")
				r.renderInline(child, sb)
				sb.WriteString("**")
			case "em", "i":
				sb.WriteString("*")
				r.renderInline(child, sb)
				sb.WriteString("*")
			case "code":
				sb.WriteByte('`')
				sb.WriteString(rawText(child))
				sb.WriteByte('`')
			case "a":
				var inner strings.Builder
				r.renderInline(child, &inner)
				href := attrValue(child, "href")
				if href == "" {
					sb.WriteString(inner.String())
				} else {
					fmt.Fprintf(sb, "[%s](%s)", strings.TrimSpace(inner.String()), href)
				}
			case "br":
				sb.WriteByte('\n')
			case "img":
				sb.WriteString(r.renderImage(child))
			default:
				r.renderInline(child, sb)
			}
		}
	}
}

// renderImage returns Markdown for an img element. Inline base64
// sources become numbered placeholders with the decoded bytes recorded
// as an ImageBlob; URL sources are kept as regular image links.
func (r *htmlRender) renderImage(n *html.Node) string {
	src := attrValue(n, "src")
	if src == "" {
		return ""
	}
	alt := attrValue(n, "alt")

	if m := dataURIRe.FindStringSubmatch(src); m != nil {
		blob, err := base64.StdEncoding.DecodeString(m[2])
		if err != nil {
			return ""
		}
		idx := len(r.images) + 1
		r.images = append(r.images, glossia.ImageBlob{
			Index:    idx,
			Data:     blob,
			Encoding: m[1],
		})
		return fmt.Sprintf("![%s](./img%d.png)", alt, idx)
	}

	return fmt.Sprintf("![%s](%s)", alt, src)
}

// inlineTagSet lists elements treated as inline content.
var inlineTagSet = map[string]bool{
	"a": true, "abbr": true, "b": true, "cite": true, "code": true,
	"em": true, "i": true, "kbd": true, "mark": true, "q": true,
	"s": true, "samp": true, "small": true, "span": true, "strong": true,
	"sub": true, "sup": true, "u": true, "var": true,
}

func isInlineTag(tag string) bool {
	return inlineTagSet[tag]
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// rawText concatenates all text nodes beneath n without collapsing.
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// spaceRe collapses runs of whitespace the way a browser renders them.
var spaceRe = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return spaceRe.ReplaceAllString(s, " ")
}

// blankRunRe squeezes three or more newlines down to a paragraph break.
var blankRunRe = regexp.MustCompile(`\n{3,}`)

func tidyMarkdown(s string) string {
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s) + "\n"
}

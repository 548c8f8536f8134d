// Package convert turns uploaded documents into Markdown with extracted
// images. PDF and DOCX conversion is delegated to a remote conversion
// engine; HTML is converted locally; Markdown passes through unchanged.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ZaguanLabs/glossia"
)

// utf8BOM is stripped from text uploads before processing.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Engine routes documents to the converter that handles their format.
// It implements glossia.Converter.
type Engine struct {
	remote *RemoteConverter
	html   *HTMLConverter
}

// NewEngine creates a conversion engine. remote may be nil, in which
// case PDF and DOCX conversion fails with a ConversionError while HTML
// and Markdown keep working.
func NewEngine(remote *RemoteConverter) *Engine {
	return &Engine{
		remote: remote,
		html:   NewHTMLConverter(),
	}
}

// Convert implements glossia.Converter.
func (e *Engine) Convert(ctx context.Context, data []byte, format glossia.DocumentFormat) (*glossia.ConversionResult, error) {
	switch format {
	case glossia.FormatPDF, glossia.FormatDOCX:
		if e.remote == nil {
			return nil, &glossia.ConversionError{
				Format:  format,
				Message: "no remote conversion engine configured",
			}
		}
		return e.remote.Convert(ctx, data, format)

	case glossia.FormatHTML:
		return e.html.Convert(ctx, data, format)

	case glossia.FormatMarkdown:
		md := bytes.TrimPrefix(data, utf8BOM)
		return &glossia.ConversionResult{Markdown: string(md)}, nil
	}

	return nil, &glossia.ConversionError{
		Format:  format,
		Message: "unsupported document format",
	}
}

// ParseFormat determines the document format from the uploaded filename,
// falling back to the Content-Type header when the extension is missing
// or unknown.
func ParseFormat(filename, contentType string) (glossia.DocumentFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return glossia.FormatPDF, nil
	case "docx", "doc":
		return glossia.FormatDOCX, nil
	case "html", "htm":
		return glossia.FormatHTML, nil
	case "md", "markdown":
		return glossia.FormatMarkdown, nil
	}

	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/pdf":
			return glossia.FormatPDF, nil
		case "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/msword":
			return glossia.FormatDOCX, nil
		case "text/html":
			return glossia.FormatHTML, nil
		case "text/markdown", "text/plain":
			return glossia.FormatMarkdown, nil
		}
	}

	return "", &glossia.ConversionError{
		Message: fmt.Sprintf("cannot determine document format of %q", filename),
	}
}

// imagePlaceholder is the Markdown link target for extracted image n.
// Matches the numbering the conversion engine embeds in its output.
func imagePlaceholder(n int) string {
	return fmt.Sprintf("(./img%d.png)", n)
}

// anchorImages fills each blob's Anchor with the byte offset of its
// placeholder in markdown, or -1 when the placeholder does not appear.
func anchorImages(markdown string, images []glossia.ImageBlob) {
	for i := range images {
		images[i].Anchor = strings.Index(markdown, imagePlaceholder(images[i].Index))
	}
}

// Verify Engine implements Converter
var _ glossia.Converter = (*Engine)(nil)

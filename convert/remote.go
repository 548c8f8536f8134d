package convert

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ZaguanLabs/glossia"
)

// DefaultConvertTimeout bounds a single conversion call. Large PDFs take
// a while to lay out, so this is much longer than a typical API timeout.
const DefaultConvertTimeout = 5 * time.Minute

// RemoteConverter sends documents to a conversion engine over HTTP. The
// engine accepts a multipart upload on POST {base}/convert and responds
// with JSON: {"markdown": "...", "images": {"1": "<base64 png>", ...}}.
// Image keys are 1-based and correspond to ./imgN.png placeholders in
// the returned Markdown.
type RemoteConverter struct {
	baseURL string
	client  *http.Client
}

// RemoteConfig holds settings for the remote conversion engine.
type RemoteConfig struct {
	BaseURL string        // Engine endpoint, e.g. "http://docling:5001"
	Timeout time.Duration // Per-call timeout (default: DefaultConvertTimeout)
}

// NewRemoteConverter creates a client for the conversion engine.
func NewRemoteConverter(cfg RemoteConfig) *RemoteConverter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}

	return &RemoteConverter{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// remoteResponse is the engine's wire format. JSON object keys are
// always strings, so image indices arrive as decimal strings.
type remoteResponse struct {
	Markdown string            `json:"markdown"`
	Images   map[string]string `json:"images"`
}

// Convert implements glossia.Converter for PDF and DOCX documents.
func (c *RemoteConverter) Convert(ctx context.Context, data []byte, format glossia.DocumentFormat) (*glossia.ConversionResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "document."+string(format))
	if err != nil {
		return nil, &glossia.ConversionError{Format: format, Message: "building upload", Cause: err}
	}
	if _, err := fw.Write(data); err != nil {
		return nil, &glossia.ConversionError{Format: format, Message: "building upload", Cause: err}
	}
	if err := mw.WriteField("format", string(format)); err != nil {
		return nil, &glossia.ConversionError{Format: format, Message: "building upload", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &glossia.ConversionError{Format: format, Message: "building upload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", &body)
	if err != nil {
		return nil, &glossia.ConversionError{Format: format, Message: "building request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", glossia.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &glossia.ConversionError{Format: format, Message: "calling conversion engine", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &glossia.ConversionError{
			Format:  format,
			Message: fmt.Sprintf("conversion engine returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail)),
		}
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &glossia.ConversionError{Format: format, Message: "decoding engine response", Cause: err}
	}

	images := make([]glossia.ImageBlob, 0, len(out.Images))
	for key, encoded := range out.Images {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, &glossia.ConversionError{
				Format:  format,
				Message: fmt.Sprintf("engine returned non-numeric image index %q", key),
			}
		}

		blob, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, &glossia.ConversionError{
				Format:  format,
				Message: fmt.Sprintf("decoding image %d", idx),
				Cause:   err,
			}
		}

		images = append(images, glossia.ImageBlob{
			Index:    idx,
			Data:     blob,
			Encoding: "png",
		})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Index < images[j].Index })
	anchorImages(out.Markdown, images)

	return &glossia.ConversionResult{
		Markdown: out.Markdown,
		Images:   images,
	}, nil
}

// Verify RemoteConverter implements Converter
var _ glossia.Converter = (*RemoteConverter)(nil)

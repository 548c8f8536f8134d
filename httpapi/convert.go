package httpapi

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/ZaguanLabs/glossia"
	"github.com/ZaguanLabs/glossia/convert"
)

// convertResponse mirrors the shape web clients already consume:
// Markdown plus images keyed by their 1-based placeholder index.
type convertResponse struct {
	Markdown string         `json:"markdown"`
	Images   map[int]string `json:"images"`
}

func (s *Server) handleConvertDoc(w http.ResponseWriter, r *http.Request) {
	if s.converter == nil {
		writeError(w, http.StatusServiceUnavailable, "document conversion is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" upload`)
		return
	}
	defer file.Close()

	format, err := uploadFormat(r.FormValue("format"), header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.record(r, "convert.doc",
		"file_size", header.Size,
		"format", string(format),
	)

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	result, err := s.converter.Convert(r.Context(), data, format)
	if err != nil {
		if r.Context().Err() == nil {
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	images := make(map[int]string, len(result.Images))
	for _, img := range result.Images {
		images[img.Index] = base64.StdEncoding.EncodeToString(img.Data)
	}

	writeJSON(w, http.StatusOK, convertResponse{
		Markdown: result.Markdown,
		Images:   images,
	})
}

// uploadFormat resolves the document format from the explicit form
// field when present, otherwise from the filename and content type.
func uploadFormat(explicit, filename, contentType string) (glossia.DocumentFormat, error) {
	if explicit != "" {
		switch f := glossia.DocumentFormat(explicit); f {
		case glossia.FormatPDF, glossia.FormatDOCX, glossia.FormatHTML, glossia.FormatMarkdown:
			return f, nil
		default:
			return "", errors.New("unsupported format " + explicit)
		}
	}
	return convert.ParseFormat(filename, contentType)
}

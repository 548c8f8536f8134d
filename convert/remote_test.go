package convert

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZaguanLabs/glossia"
)

func TestRemoteConverter_Convert(t *testing.T) {
	payload := []byte("%PDF-1.4 fake document")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/convert" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != glossia.UserAgent() {
			t.Errorf("Unexpected user agent: %q", ua)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Reading upload: %v", err)
			http.Error(w, "bad upload", http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Filename != "document.pdf" {
			t.Errorf("Expected filename 'document.pdf', got %q", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if string(body) != string(payload) {
			t.Error("Uploaded payload does not match input")
		}
		if got := r.FormValue("format"); got != "pdf" {
			t.Errorf("Expected format field 'pdf', got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"markdown":"Intro ![diagram](./img1.png) outro","images":{"1":%q}}`,
			base64.StdEncoding.EncodeToString([]byte("pngbytes")))
	}))
	defer srv.Close()

	c := NewRemoteConverter(RemoteConfig{BaseURL: srv.URL})

	result, err := c.Convert(context.Background(), payload, glossia.FormatPDF)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if result.Markdown != "Intro ![diagram](./img1.png) outro" {
		t.Errorf("Unexpected markdown: %q", result.Markdown)
	}
	if len(result.Images) != 1 {
		t.Fatalf("Expected 1 image, got %d", len(result.Images))
	}

	img := result.Images[0]
	if img.Index != 1 {
		t.Errorf("Expected index 1, got %d", img.Index)
	}
	if string(img.Data) != "pngbytes" {
		t.Errorf("Expected decoded image bytes, got %q", img.Data)
	}
	if img.Encoding != "png" {
		t.Errorf("Expected encoding 'png', got %q", img.Encoding)
	}
	if want := strings.Index(result.Markdown, "(./img1.png)"); img.Anchor != want {
		t.Errorf("Expected anchor %d, got %d", want, img.Anchor)
	}
}

func TestRemoteConverter_ImagesSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"markdown":"no placeholders","images":{"10":"YQ==","2":"YQ==","1":"YQ=="}}`)
	}))
	defer srv.Close()

	c := NewRemoteConverter(RemoteConfig{BaseURL: srv.URL})

	result, err := c.Convert(context.Background(), []byte("doc"), glossia.FormatDOCX)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if len(result.Images) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(result.Images))
	}
	for i, want := range []int{1, 2, 10} {
		if result.Images[i].Index != want {
			t.Errorf("Position %d: expected index %d, got %d", i, want, result.Images[i].Index)
		}
		if result.Images[i].Anchor != -1 {
			t.Errorf("Expected anchor -1 without placeholder, got %d", result.Images[i].Anchor)
		}
	}
}

func TestRemoteConverter_EngineFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "layout engine crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRemoteConverter(RemoteConfig{BaseURL: srv.URL})

	_, err := c.Convert(context.Background(), []byte("doc"), glossia.FormatDOCX)
	if err == nil {
		t.Fatal("Expected error on engine failure")
	}

	var cerr *glossia.ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected ConversionError, got %T: %v", err, err)
	}
	if cerr.Format != glossia.FormatDOCX {
		t.Errorf("Expected format 'docx', got %q", cerr.Format)
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "layout engine crashed") {
		t.Errorf("Error should carry status and detail, got: %v", err)
	}
}

func TestRemoteConverter_BadImageIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"markdown":"x","images":{"cover":"YQ=="}}`)
	}))
	defer srv.Close()

	c := NewRemoteConverter(RemoteConfig{BaseURL: srv.URL})

	_, err := c.Convert(context.Background(), []byte("doc"), glossia.FormatPDF)
	if err == nil {
		t.Fatal("Expected error for non-numeric image index")
	}
	if !strings.Contains(err.Error(), "non-numeric image index") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestRemoteConverter_BadImageData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"markdown":"x","images":{"1":"!!!not-base64!!!"}}`)
	}))
	defer srv.Close()

	c := NewRemoteConverter(RemoteConfig{BaseURL: srv.URL})

	_, err := c.Convert(context.Background(), []byte("doc"), glossia.FormatPDF)
	if err == nil {
		t.Fatal("Expected error for undecodable image data")
	}

	var cerr *glossia.ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected ConversionError, got %T", err)
	}
	if !strings.Contains(err.Error(), "decoding image 1") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestRemoteConverter_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"markdown":"x"}`)
	}))
	defer srv.Close()

	c := NewRemoteConverter(RemoteConfig{BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Convert(ctx, []byte("doc"), glossia.FormatPDF)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	var cerr *glossia.ConversionError
	if errors.As(err, &cerr) {
		t.Error("Cancellation must not be wrapped as a conversion error")
	}
}

func TestNewRemoteConverter_Timeout(t *testing.T) {
	c := NewRemoteConverter(RemoteConfig{BaseURL: "http://engine:5001"})
	if c.client.Timeout != DefaultConvertTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultConvertTimeout, c.client.Timeout)
	}

	c = NewRemoteConverter(RemoteConfig{BaseURL: "http://engine:5001", Timeout: 10 * time.Second})
	if c.client.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", c.client.Timeout)
	}
}

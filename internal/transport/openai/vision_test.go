package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.png")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestVisionOCR_ExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					ImageURL struct {
						URL    string `json:"url"`
						Detail string `json:"detail"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "vision-model" || len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("unexpected request shape: %+v", req)
		}
		img := req.Messages[0].Content[1].ImageURL
		if !strings.HasPrefix(img.URL, "data:image/png;base64,") {
			t.Errorf("expected png data URL, got %.40s", img.URL)
		}
		if img.Detail != "high" {
			t.Errorf("expected high detail, got %q", img.Detail)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": "  Plants make food  \n"}}},
			"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
		})
	}))
	defer server.Close()

	v := NewVisionOCR(&VisionConfig{APIKey: "k", BaseURL: server.URL, Model: "vision-model"})
	text, err := v.ExtractText(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "Plants make food" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestVisionOCR_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	v := NewVisionOCR(&VisionConfig{BaseURL: server.URL, Model: "m"})
	if _, err := v.ExtractText(context.Background(), writeImage(t)); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestVisionOCR_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	v := NewVisionOCR(&VisionConfig{BaseURL: server.URL, Model: "m"})
	if _, err := v.ExtractText(context.Background(), writeImage(t)); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestVisionOCR_Metadata(t *testing.T) {
	v := NewVisionOCR(&VisionConfig{Model: "m"})
	if v.Name() != "vision" || v.AcceptsPDF() {
		t.Error("unexpected engine metadata")
	}
	if v.prompt != defaultVisionPrompt || v.maxTokens != 2048 {
		t.Error("expected defaults to be applied")
	}
}

// Package ocrspace is a client for the OCR.space REST API.
package ocrspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public OCR.space endpoint.
const DefaultBaseURL = "https://api.ocr.space"

// Config holds OCR.space settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Engine   int    // OCR.space engine: 1, 2 or 3
	Language string // e.g. "eng"
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Client calls POST /parse/image with the document as a multipart upload.
type Client struct {
	apiKey   string
	baseURL  string
	engine   int
	language string
	httpc    *http.Client
	logger   *zap.Logger
}

// New creates an OCR.space client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	engine := cfg.Engine
	if engine == 0 {
		engine = 2
	}
	language := cfg.Language
	if language == "" {
		language = "eng"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		engine:   engine,
		language: language,
		httpc:    &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Name identifies the engine in logs and metrics.
func (c *Client) Name() string { return "ocrspace" }

// AcceptsPDF reports that OCR.space rasterizes PDFs server-side.
func (c *Client) AcceptsPDF() bool { return true }

type parsedResult struct {
	ParsedText        string `json:"ParsedText"`
	FileParseExitCode int    `json:"FileParseExitCode"`
	ErrorMessage      string `json:"ErrorMessage"`
}

type response struct {
	ParsedResults         []parsedResult  `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// ExtractText uploads the file at path and returns the text of all parsed pages.
func (c *Client) ExtractText(ctx context.Context, path string) (string, error) {
	body, contentType, err := c.buildForm(path)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse/image", body)
	if err != nil {
		return "", fmt.Errorf("ocrspace: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocrspace: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ocrspace: status %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ocrspace: decode response: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("ocrspace: exit code %d: %s", parsed.OCRExitCode, errorMessage(parsed.ErrorMessage))
	}
	if len(parsed.ParsedResults) == 0 {
		return "", fmt.Errorf("ocrspace: empty response")
	}

	pages := make([]string, 0, len(parsed.ParsedResults))
	for i, r := range parsed.ParsedResults {
		if r.FileParseExitCode != 1 {
			c.logger.Warn("OCR.space page failed",
				zap.Int("page", i+1),
				zap.Int("exit_code", r.FileParseExitCode),
				zap.String("error", r.ErrorMessage),
			)
			continue
		}
		pages = append(pages, r.ParsedText)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("ocrspace: no page could be parsed: %s", parsed.ParsedResults[0].ErrorMessage)
	}

	return strings.Join(pages, "\n"), nil
}

func (c *Client) buildForm(path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("ocrspace: open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"language":  c.language,
		"OCREngine": strconv.Itoa(c.engine),
		"scale":     "true",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("ocrspace: write field %s: %w", k, err)
		}
	}

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("ocrspace: create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("ocrspace: copy document: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("ocrspace: close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage flattens OCR.space's ErrorMessage, which is either a string or a list.
func errorMessage(raw json.RawMessage) string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

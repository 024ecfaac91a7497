package autoeval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// CalculateRequest is one answer to grade.
type CalculateRequest struct {
	Filename string    // e.g. "answer.png"; the extension selects the extractor
	Content  io.Reader // document bytes
	Text     string    // reference answer
	Marks    float64   // maximum mark for the question
}

// Result is a graded answer.
type Result struct {
	OCRText     string  `json:"ocr_text"`
	ScaledScore float64 `json:"scaled_score"`
	Similarity  float64 `json:"similarity"`
	Marks       float64 `json:"marks"`
	// EmbeddingTokens is the provider token count reported by the server, 0 on a cache hit.
	EmbeddingTokens int `json:"-"`
}

// Calculate uploads a document and scores it against the reference text.
func (c *Client) Calculate(ctx context.Context, req CalculateRequest) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("calculate", start, err) }()

	if req.Content == nil {
		return Result{}, errors.New("autoeval: calculate: content is required")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", req.Filename)
	if err != nil {
		return Result{}, fmt.Errorf("autoeval: calculate: %w", err)
	}
	if _, err = io.Copy(fw, req.Content); err != nil {
		return Result{}, fmt.Errorf("autoeval: calculate: read content: %w", err)
	}
	if err = mw.WriteField("text", req.Text); err != nil {
		return Result{}, fmt.Errorf("autoeval: calculate: %w", err)
	}
	if err = mw.WriteField("marks", strconv.FormatFloat(req.Marks, 'f', -1, 64)); err != nil {
		return Result{}, fmt.Errorf("autoeval: calculate: %w", err)
	}
	if err = mw.Close(); err != nil {
		return Result{}, fmt.Errorf("autoeval: calculate: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/calculate", &body)
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(httpReq, &res)
	if err != nil {
		return Result{}, err
	}
	if tokens := resp.Header.Get("X-Embedding-Tokens"); tokens != "" {
		res.EmbeddingTokens, _ = strconv.Atoi(tokens)
	}
	return res, nil
}

package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultVisionPrompt = "Transcribe all handwritten and printed text in this image exactly as written. " +
	"Return only the transcription, without commentary. Return an empty response if there is no text."

// VisionConfig configures the vision-model OCR engine.
type VisionConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Prompt    string
	MaxTokens int
	Logger    *zap.Logger
}

// VisionOCR transcribes answer sheets with a multimodal chat model.
type VisionOCR struct {
	client    *openai.Client
	model     string
	prompt    string
	maxTokens int
	logger    *zap.Logger
}

// NewVisionOCR creates a vision OCR engine backed by the chat completions API.
func NewVisionOCR(cfg *VisionConfig) *VisionOCR {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = defaultVisionPrompt
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &VisionOCR{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		prompt:    prompt,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Name identifies the engine in logs and metrics.
func (v *VisionOCR) Name() string { return "vision" }

// AcceptsPDF reports false: chat models take raster images only.
func (v *VisionOCR) AcceptsPDF() bool { return false }

// ExtractText sends the image at path as a data URL and returns the transcription.
func (v *VisionOCR) ExtractText(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("vision: read image: %w", err)
	}
	dataURL := "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       v.model,
		MaxTokens:   v.maxTokens,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: v.prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailHigh,
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision: empty completion")
	}

	v.logger.Debug("vision transcription complete",
		zap.String("model", v.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels.
func (v *VisionOCR) HealthCheck(ctx context.Context) error {
	if _, err := v.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

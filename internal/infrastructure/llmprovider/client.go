// Package llmprovider implements the domain model interfaces against the
// OpenAI API: chat extraction, conflict judging, prose, vision, embeddings.
package llmprovider

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"bootlang/services/agent-api/internal/config"
	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/domain/llm"
	"bootlang/services/agent-api/internal/domain/retry"
)

// Client wraps the OpenAI SDK with retry and per-call timeouts.
type Client struct {
	api            *openai.Client
	chatModel      string
	visionModel    string
	embeddingModel string
	timeout        time.Duration
	policy         retry.Policy
	log            zerolog.Logger
}

var (
	_ llm.Extractor       = (*Client)(nil)
	_ llm.ConflictJudge   = (*Client)(nil)
	_ llm.ProseWriter     = (*Client)(nil)
	_ llm.VisionDescriber = (*Client)(nil)
	_ llm.Embedder        = (*Client)(nil)
)

// New builds the provider from service configuration.
func New(cfg *config.Config, log zerolog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	policy := retry.DefaultPolicy()
	if cfg.ModelRetries > 0 {
		policy.MaxRetries = cfg.ModelRetries
	}

	return &Client{
		api:            openai.NewClientWithConfig(clientConfig),
		chatModel:      cfg.ChatModel,
		visionModel:    cfg.VisionModel,
		embeddingModel: cfg.EmbeddingModel,
		timeout:        cfg.ModelTimeout,
		policy:         policy,
		log:            log.With().Str("component", "llmprovider").Logger(),
	}
}

// chatJSON runs a completion that must answer with a single JSON object.
func (c *Client) chatJSON(ctx context.Context, model, system, user string) (string, error) {
	return retry.ExecuteWithResult(ctx, c.policy, func(ctx context.Context, attempt int) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0,
		})
		if err != nil {
			return "", domainerrors.NewExternalModelError("chat completion failed", err)
		}
		if len(resp.Choices) == 0 {
			return "", domainerrors.NewExternalModelError("chat completion returned no choices", nil)
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// chatText runs a plain prose completion.
func (c *Client) chatText(ctx context.Context, model, system, user string) (string, error) {
	return retry.ExecuteWithResult(ctx, c.policy, func(ctx context.Context, attempt int) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			Temperature: 0.4,
		})
		if err != nil {
			return "", domainerrors.NewExternalModelError("chat completion failed", err)
		}
		if len(resp.Choices) == 0 {
			return "", domainerrors.NewExternalModelError("chat completion returned no choices", nil)
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// DescribeImage sends a wireframe to the vision model and returns a
// structured textual description.
func (c *Client) DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	return retry.ExecuteWithResult(ctx, c.policy, func(ctx context.Context, attempt int) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.visionModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{Type: openai.ChatMessagePartTypeText, Text: wireframePrompt},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    dataURL,
								Detail: openai.ImageURLDetailAuto,
							},
						},
					},
				},
			},
		})
		if err != nil {
			return "", domainerrors.NewExternalModelError("vision completion failed", err)
		}
		if len(resp.Choices) == 0 {
			return "", domainerrors.NewExternalModelError("vision completion returned no choices", nil)
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// EmbedTexts returns one embedding vector per input text, in order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	return retry.ExecuteWithResult(ctx, c.policy, func(ctx context.Context, attempt int) ([][]float32, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		if err != nil {
			return nil, domainerrors.NewExternalModelError("embedding request failed", err)
		}
		if len(resp.Data) != len(texts) {
			return nil, domainerrors.NewExternalModelError(
				fmt.Sprintf("embedding count mismatch: want %d, got %d", len(texts), len(resp.Data)), nil)
		}

		out := make([][]float32, len(texts))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(out) {
				return nil, domainerrors.NewExternalModelError("embedding index out of range", nil)
			}
			out[d.Index] = d.Embedding
		}
		return out, nil
	})
}

const wireframePrompt = `You are analyzing a UI wireframe or mockup for a software project.
Describe it so a developer could rebuild the screen without seeing the image:
1. Overall layout (columns, header, navigation).
2. Component inventory (buttons, forms, lists, tables) with their labels.
3. Styling notes (colors, emphasis, spacing) if visible.
4. A one-sentence summary of what the screen is for.`

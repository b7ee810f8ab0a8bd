package ai

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/odoo-query-bridge/internal/config"
	apperrors "github.com/Vovarama1992/odoo-query-bridge/internal/errors"
)

type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIClient works against any OpenAI-compatible endpoint; the
// default is OpenRouter.
func NewOpenAIClient(cfg config.AIConfig) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, apperrors.New(apperrors.ConfigurationError, "OPENROUTER_API_KEY or OPENAI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = config.DefaultAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.Title,
			},
		},
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: float32(cfg.Temperature),
	}, nil
}

func (c *OpenAIClient) GetReply(
	ctx context.Context,
	systemPrompt string,
	userText string,
) (string, error) {

	history := []Message{
		{Role: openai.ChatMessageRoleSystem, Text: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Text: userText},
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Text,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
	})
	if err != nil {
		log.Println("[ai] model error:", err)
		return "", apperrors.Wrap(apperrors.ModelInvocationError, "chat completion "+c.model, err)
	}

	if len(resp.Choices) == 0 {
		log.Println("[ai] empty choices")
		return "", apperrors.New(apperrors.ModelInvocationError, "model returned no choices")
	}

	raw := resp.Choices[0].Message.Content

	log.Println("[ai] RAW MODEL RESPONSE >>>")
	log.Println(raw)
	log.Println("<<< END MODEL RESPONSE")

	return raw, nil
}

// headerTransport adds fixed headers (OpenRouter attribution) to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}

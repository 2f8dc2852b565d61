// Package langchain adapts langchaingo models to the completion service.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dukex/autoflow/pkg/completion"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const provider = "openai"

// ErrMissingAPIKey indicates neither the config nor OPENAI_API_KEY holds a key.
var ErrMissingAPIKey = errors.New("openai api key is not configured")

type Config struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `yaml:"max_tokens"  validate:"min=0"`
}

// Service implements completion.Service with an OpenAI compatible chat model.
type Service struct {
	llm    llms.Model
	config Config
}

// NewOpenAI creates the service, reading OPENAI_API_KEY when the config has no key.
func NewOpenAI(cfg Config) (*Service, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
	}

	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}

	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, completion.TranslateError(provider, err)
	}

	return NewWithModel(client, cfg), nil
}

// NewWithModel wraps any langchaingo model.
func NewWithModel(model llms.Model, cfg Config) *Service {
	return &Service{llm: model, config: cfg}
}

func (s *Service) Generate(ctx context.Context, prompt string, hints models.StyleHints) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, completion.SystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, completion.BuildPrompt(prompt, hints)),
	}

	return s.complete(ctx, messages)
}

func (s *Service) Reply(ctx context.Context, history []models.Message, message string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, completion.SystemPrompt()))

	for _, msg := range history {
		role := llms.ChatMessageTypeHuman
		if msg.Role == models.MessageRoleAssistant {
			role = llms.ChatMessageTypeAI
		}

		messages = append(messages, llms.TextParts(role, msg.Content))
	}

	// the current message is usually the last history entry already
	if len(history) == 0 || history[len(history)-1].Content != message {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))
	}

	return s.complete(ctx, messages)
}

func (s *Service) complete(ctx context.Context, messages []llms.MessageContent) (string, error) {
	var callOpts []llms.CallOption

	if s.config.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(s.config.Temperature))
	}

	if s.config.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(s.config.MaxTokens))
	}

	resp, err := s.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", completion.TranslateError(provider, err)
	}

	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", completion.TranslateError(provider, fmt.Errorf("empty response"))
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/config"
)

// ErrDisabled is returned when synthesis is not enabled in configuration.
var ErrDisabled = errors.New("narrative synthesis is disabled")

// Narrator synthesizes narratives over an OpenAI-compatible chat API.
type Narrator struct {
	client *openai.Client
	cfg    config.SynthConfig
}

// New creates a narrator from configuration. It returns ErrDisabled when
// synthesis is turned off so callers can skip the narrative cleanly.
func New(cfg config.SynthConfig) (*Narrator, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("synthesis API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Narrator{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Narrate produces a prose narrative for the result. The request is bounded
// by the configured timeout.
func (n *Narrator) Narrate(ctx context.Context, result *analysis.Result) (string, error) {
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: n.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(result)},
		},
		MaxTokens:   n.cfg.MaxTokens,
		Temperature: 0.3,
	}

	resp, err := n.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("synthesis request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("synthesis returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

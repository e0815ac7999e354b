package coze

import (
	"context"
	"fmt"

	"github.com/avatarctic/ledger/internal/core/ports"
)

const chatPath = "/v1/chat/completions"

type chatRequest struct {
	Model       string              `json:"model"`
	Messages    []ports.ChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	Stream      bool                `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMClient calls an OpenAI compatible chat completion endpoint.
type LLMClient struct {
	c           *client
	temperature float64
}

var _ ports.ChatModel = (*LLMClient)(nil)

func NewLLMClient(opts Options, temperature float64) *LLMClient {
	return &LLMClient{c: newClient(opts), temperature: temperature}
}

func (l *LLMClient) Complete(ctx context.Context, model string, messages []ports.ChatMessage) (string, error) {
	req := chatRequest{Model: model, Messages: messages, Temperature: l.temperature}
	var resp chatResponse
	if err := l.c.postJSON(ctx, chatPath, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", model)
	}
	return resp.Choices[0].Message.Content, nil
}

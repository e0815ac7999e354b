package ports

import (
	"context"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/domain/ledger"
)

// SpeechRecognizer transcribes audio held at a URL or passed inline.
type SpeechRecognizer interface {
	Recognize(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error)
}

// ChatMessage is one turn of a chat completion request. Content is either a
// plain string or a slice of ContentPart.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is a multimodal content fragment.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

type ImageRef struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ChatModel invokes a hosted language model and returns its text reply.
type ChatModel interface {
	Complete(ctx context.Context, model string, messages []ChatMessage) (string, error)
}

// SpeechService is the use case behind /api/asr.
type SpeechService interface {
	Recognize(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error)
	Configured() bool
}

// ExtractionService turns free text or receipt images into ledger fields.
type ExtractionService interface {
	ParseVoice(ctx context.Context, text string) (*ledger.ExtractedAccount, error)
	ParseImage(ctx context.Context, imageURL, imageBase64, mimeType string) ([]ledger.ExtractedAccount, error)
}

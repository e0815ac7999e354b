package coze

import (
	"context"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/ports"
)

const asrPath = "/v1/asr/recognize"

type asrRequest struct {
	URL        string `json:"url,omitempty"`
	Base64Data string `json:"base64_data,omitempty"`
}

type asrResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

// ASRClient calls the speech recognition endpoint.
type ASRClient struct {
	c *client
}

var _ ports.SpeechRecognizer = (*ASRClient)(nil)

func NewASRClient(opts Options) *ASRClient {
	return &ASRClient{c: newClient(opts)}
}

// Recognize prefers the inline payload; the URL form only works when the
// audio is reachable from the provider.
func (a *ASRClient) Recognize(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error) {
	req := asrRequest{URL: src.URL}
	if src.Base64 != "" {
		req = asrRequest{Base64Data: src.Base64}
	}
	var resp asrResponse
	if err := a.c.postJSON(ctx, asrPath, req, &resp); err != nil {
		return nil, err
	}
	return &asset.Transcript{Text: resp.Text, Duration: resp.Duration}, nil
}

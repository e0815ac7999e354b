package asset

import (
	"errors"
	"time"
)

// Kind selects the retrieval policy of a temporary asset.
type Kind int

const (
	// KindAudio entries are consumed by the first successful retrieval.
	KindAudio Kind = iota
	// KindImage entries may be read any number of times until they expire.
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// IDPrefix is the leading token of identifiers handed out for this kind.
func (k Kind) IDPrefix() string {
	if k == KindImage {
		return "img"
	}
	return "temp"
}

// ConsumeOnRead reports whether a retrieval removes the entry.
func (k Kind) ConsumeOnRead() bool {
	return k == KindAudio
}

const (
	AudioMimeType        = "audio/wav"
	DefaultImageMimeType = "image/jpeg"

	DefaultAudioTTL = 5 * time.Minute
	DefaultImageTTL = 30 * time.Minute

	// Presigned URL lifetimes for objects in durable storage. S3 signature v4
	// caps presigned URLs at seven days.
	ImageURLExpiry = 7 * 24 * time.Hour
	AudioURLExpiry = time.Hour

	ImageKeyPrefix = "account-images"
	AudioKeyPrefix = "account-audio"
)

var (
	// ErrNotFound is returned for ids that never existed, expired or were already consumed.
	ErrNotFound = errors.New("not found")
	// ErrEmptyPayload guards store operations.
	ErrEmptyPayload = errors.New("file does not exist")
	// ErrStorageUnavailable is returned when neither object storage nor a temp URL can be produced.
	ErrStorageUnavailable = errors.New("object storage is not configured and no temporary URL can be generated")
	// ErrAIUnavailable is returned when the AI API key is missing.
	ErrAIUnavailable = errors.New("speech and image recognition require AI_API_KEY")
	// ErrUpstreamBusy signals a 503 from a remote AI service.
	ErrUpstreamBusy = errors.New("upstream service busy")
)

// UploadResult is what upload endpoints hand back to the client.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// AudioSource is either a fetchable URL or an inline base64 payload.
// Base64 wins when both are present.
type AudioSource struct {
	URL    string `json:"audioUrl,omitempty"`
	Base64 string `json:"audioBase64,omitempty"`
}

// Empty reports whether neither field is set.
func (s AudioSource) Empty() bool {
	return s.URL == "" && s.Base64 == ""
}

// Transcript is the result of speech recognition.
type Transcript struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

package ports

import (
	"context"
	"time"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
)

// TempAssetStore holds short-lived payloads in process memory and hands out
// opaque ids that can be embedded in URLs. Implementations must be safe for
// concurrent use; an audio id can be claimed at most once.
type TempAssetStore interface {
	StoreAudio(payload []byte) (string, error)
	// RetrieveAndRemoveAudio returns asset.ErrNotFound for unknown, expired or already claimed ids.
	RetrieveAndRemoveAudio(id string) ([]byte, error)
	StoreImage(payload []byte, mimeType string) (string, error)
	// RetrieveImage does not remove the entry; it returns asset.ErrNotFound once expired.
	RetrieveImage(id string) ([]byte, string, error)
	Len(kind asset.Kind) int
}

// ObjectStorage is a durable bucket able to hand out presigned download URLs.
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Ping(ctx context.Context) error
}

// UploadService stores uploaded media and returns a fetchable URL.
type UploadService interface {
	UploadImage(ctx context.Context, data []byte, fileName, mimeType, baseURL string) (*asset.UploadResult, error)
	UploadAudio(ctx context.Context, data []byte, fileName, mimeType, baseURL string) (*asset.UploadResult, error)
	TakeTempAudio(id string) ([]byte, error)
	TempImage(id string) ([]byte, string, error)
	HasObjectStorage() bool
}

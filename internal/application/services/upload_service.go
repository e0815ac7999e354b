package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/ports"
)

// imageMimeTypes are the only content types served back for uploaded images.
var imageMimeTypes = map[string]string{
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/png":  "image/png",
	"image/gif":  "image/gif",
	"image/webp": "image/webp",
}

const (
	tempImagePath = "/api/upload/image-temp/"
	tempAudioPath = "/api/upload/audio-temp/"
)

// UploadService writes media to the bucket when one is configured and falls
// back to the in-memory temp store otherwise.
type UploadService struct {
	storage ports.ObjectStorage
	temp    ports.TempAssetStore
	logger  *logrus.Logger
	now     func() time.Time
}

// NewUploadService accepts a nil storage, in which case every upload goes to temp.
func NewUploadService(storage ports.ObjectStorage, temp ports.TempAssetStore, logger *logrus.Logger) ports.UploadService {
	return &UploadService{storage: storage, temp: temp, logger: logger, now: time.Now}
}

func (s *UploadService) HasObjectStorage() bool {
	return s.storage != nil
}

func (s *UploadService) UploadImage(ctx context.Context, data []byte, fileName, mimeType, baseURL string) (*asset.UploadResult, error) {
	if len(data) == 0 {
		return nil, asset.ErrEmptyPayload
	}
	mimeType = imageMimeType(mimeType, data)
	if fileName == "" {
		fileName = fmt.Sprintf("image-%d.jpg", s.now().UnixMilli())
	}
	if s.storage != nil {
		return s.putObject(ctx, asset.ImageKeyPrefix, data, fileName, mimeType, asset.ImageURLExpiry)
	}
	if baseURL == "" {
		return nil, asset.ErrStorageUnavailable
	}
	id, err := s.temp.StoreImage(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to stage image: %w", err)
	}
	return s.tempResult(id, baseURL, tempImagePath, len(data)), nil
}

func (s *UploadService) UploadAudio(ctx context.Context, data []byte, fileName, mimeType, baseURL string) (*asset.UploadResult, error) {
	if len(data) == 0 {
		return nil, asset.ErrEmptyPayload
	}
	if mimeType == "" {
		mimeType = asset.AudioMimeType
	}
	if fileName == "" {
		fileName = fmt.Sprintf("record-%d.wav", s.now().UnixMilli())
	}
	if s.storage != nil {
		return s.putObject(ctx, asset.AudioKeyPrefix, data, fileName, mimeType, asset.AudioURLExpiry)
	}
	if baseURL == "" {
		return nil, asset.ErrStorageUnavailable
	}
	id, err := s.temp.StoreAudio(data)
	if err != nil {
		return nil, fmt.Errorf("failed to stage audio: %w", err)
	}
	return s.tempResult(id, baseURL, tempAudioPath, len(data)), nil
}

func (s *UploadService) TakeTempAudio(id string) ([]byte, error) {
	return s.temp.RetrieveAndRemoveAudio(id)
}

func (s *UploadService) TempImage(id string) ([]byte, string, error) {
	return s.temp.RetrieveImage(id)
}

func (s *UploadService) putObject(ctx context.Context, prefix string, data []byte, fileName, mimeType string, expiry time.Duration) (*asset.UploadResult, error) {
	key := fmt.Sprintf("%s/%d-%s", prefix, s.now().UnixMilli(), path.Base(fileName))
	stored, err := s.storage.PutObject(ctx, key, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}
	url, err := s.storage.PresignedURL(ctx, stored, expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign object url: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"key": stored, "size": humanize.Bytes(uint64(len(data)))}).Info("object uploaded")
	}
	return &asset.UploadResult{Key: stored, URL: url}, nil
}

func (s *UploadService) tempResult(id, baseURL, route string, size int) *asset.UploadResult {
	url := strings.TrimRight(baseURL, "/") + route + id
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"id": id, "url": url, "size": humanize.Bytes(uint64(size))}).Info("upload staged in temp store")
	}
	return &asset.UploadResult{Key: id, URL: url}
}

// imageMimeType keeps a declared type only if it is an allowed image type,
// then tries content sniffing, then falls back to JPEG.
func imageMimeType(declared string, data []byte) string {
	mt := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if v, ok := imageMimeTypes[mt]; ok {
		return v
	}
	if v, ok := imageMimeTypes[http.DetectContentType(data)]; ok {
		return v
	}
	return asset.DefaultImageMimeType
}

package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/ledger/internal/application/services"
	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/infrastructure/tempstore"
	tmocks "github.com/avatarctic/ledger/test/mocks"
)

func newTempStore(t *testing.T) *tempstore.Store {
	t.Helper()
	s := tempstore.New(tempstore.Options{AudioTTL: time.Minute, ImageTTL: time.Minute})
	t.Cleanup(s.Close)
	return s
}

func TestUploadAudio_NoBucket_StagesInTempStore(t *testing.T) {
	temp := newTempStore(t)
	svc := impl.NewUploadService(nil, temp, nil)

	res, err := svc.UploadAudio(context.Background(), []byte("RIFF...."), "", "", "https://ledger.example.com/")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.URL, "https://ledger.example.com/api/upload/audio-temp/temp-"))
	require.True(t, strings.HasSuffix(res.URL, res.Key))

	data, err := svc.TakeTempAudio(res.Key)
	require.NoError(t, err)
	require.Equal(t, []byte("RIFF...."), data)

	_, err = svc.TakeTempAudio(res.Key)
	require.ErrorIs(t, err, asset.ErrNotFound)
}

func TestUploadImage_NoBucket_ServesRepeatedly(t *testing.T) {
	temp := newTempStore(t)
	svc := impl.NewUploadService(nil, temp, nil)

	res, err := svc.UploadImage(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "r.png", "image/png", "http://localhost:8080")
	require.NoError(t, err)
	require.Contains(t, res.URL, "/api/upload/image-temp/img-")

	for i := 0; i < 3; i++ {
		data, mime, err := svc.TempImage(res.Key)
		require.NoError(t, err)
		require.Equal(t, "image/png", mime)
		require.Len(t, data, 4)
	}
	require.False(t, svc.HasObjectStorage())
}

func TestUpload_NoBucketNoBaseURL_Unavailable(t *testing.T) {
	svc := impl.NewUploadService(nil, newTempStore(t), nil)
	_, err := svc.UploadImage(context.Background(), []byte("x"), "", "", "")
	require.ErrorIs(t, err, asset.ErrStorageUnavailable)
}

func TestUpload_EmptyPayload(t *testing.T) {
	svc := impl.NewUploadService(nil, newTempStore(t), nil)
	_, err := svc.UploadAudio(context.Background(), nil, "", "", "http://x")
	require.ErrorIs(t, err, asset.ErrEmptyPayload)
}

func TestUploadImage_WithBucket_PresignsStoredKey(t *testing.T) {
	var putKey, putType string
	var expiry time.Duration
	storage := &tmocks.ObjectStorageMock{
		PutObjectFn: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			putKey, putType = key, contentType
			return key, nil
		},
		PresignedURLFn: func(ctx context.Context, key string, e time.Duration) (string, error) {
			expiry = e
			return "https://bucket/" + key + "?sig", nil
		},
	}
	temp := newTempStore(t)
	svc := impl.NewUploadService(storage, temp, nil)

	res, err := svc.UploadImage(context.Background(), []byte("jpeg"), "../../etc/receipt.jpg", "", "")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(putKey, asset.ImageKeyPrefix+"/"))
	require.True(t, strings.HasSuffix(putKey, "-receipt.jpg"))
	require.Equal(t, asset.DefaultImageMimeType, putType)
	require.Equal(t, asset.ImageURLExpiry, expiry)
	require.Equal(t, putKey, res.Key)
	require.Equal(t, 0, temp.Len(asset.KindImage))
	require.True(t, svc.HasObjectStorage())
}

func TestUploadAudio_BucketFailureIsReported(t *testing.T) {
	storage := &tmocks.ObjectStorageMock{PutObjectFn: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
		return "", errors.New("access denied")
	}}
	svc := impl.NewUploadService(storage, newTempStore(t), nil)
	_, err := svc.UploadAudio(context.Background(), []byte("a"), "", "", "http://x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "access denied")
}

func TestUploadImage_OnlyImageTypesAreKept(t *testing.T) {
	svc := impl.NewUploadService(nil, newTempStore(t), nil)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	cases := []struct {
		name     string
		data     []byte
		declared string
		want     string
	}{
		{"allowed declared type", []byte("gif-bytes"), "image/gif", "image/gif"},
		{"declared with params", []byte("x"), "Image/WebP; q=1", "image/webp"},
		{"jpg alias", []byte("x"), "image/jpg", "image/jpeg"},
		{"html declared, png content", png, "text/html", "image/png"},
		{"html declared and content", []byte("<script>alert(1)</script>"), "text/html", asset.DefaultImageMimeType},
		{"svg is not served", []byte("<svg onload=alert(1)>"), "image/svg+xml", asset.DefaultImageMimeType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.UploadImage(context.Background(), tc.data, "", tc.declared, "http://x")
			require.NoError(t, err)
			_, mime, err := svc.TempImage(res.Key)
			require.NoError(t, err)
			require.Equal(t, tc.want, mime)
		})
	}
}

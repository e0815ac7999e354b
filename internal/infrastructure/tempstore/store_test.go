package tempstore_test

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/infrastructure/tempstore"
)

func TestStoreAudio_ClaimOnce(t *testing.T) {
	s := tempstore.New(tempstore.Options{})
	defer s.Close()

	riff := []byte{0x52, 0x49, 0x46, 0x46}
	id, err := s.StoreAudio(riff)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(id, "temp-"), id)

	got, err := s.RetrieveAndRemoveAudio(id)
	require.NoError(t, err)
	require.Equal(t, riff, got)

	_, err = s.RetrieveAndRemoveAudio(id)
	require.ErrorIs(t, err, asset.ErrNotFound)
	require.Equal(t, 0, s.Len(asset.KindAudio))
}

func TestStoreImage_RepeatRead(t *testing.T) {
	s := tempstore.New(tempstore.Options{})
	defer s.Close()

	zeros := make([]byte, 1024)
	id, err := s.StoreImage(zeros, "image/png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(id, "img-"), id)

	for i := 0; i < 2; i++ {
		got, mime, err := s.RetrieveImage(id)
		require.NoError(t, err)
		require.Equal(t, zeros, got)
		require.Equal(t, "image/png", mime)
	}
	require.Equal(t, 1, s.Len(asset.KindImage))
}

func TestStoreImage_DefaultMimeAndCopy(t *testing.T) {
	s := tempstore.New(tempstore.Options{})
	defer s.Close()

	payload := []byte("jpeg-bytes")
	id, err := s.StoreImage(payload, "")
	require.NoError(t, err)

	// mutating the caller's slice or a returned copy must not reach the entry
	payload[0] = 'X'
	got, mime, err := s.RetrieveImage(id)
	require.NoError(t, err)
	require.Equal(t, asset.DefaultImageMimeType, mime)
	require.Equal(t, []byte("jpeg-bytes"), got)
	got[0] = 'Y'

	again, _, err := s.RetrieveImage(id)
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg-bytes"), again)
}

func TestStore_AudioExpiresUnclaimed(t *testing.T) {
	s := tempstore.New(tempstore.Options{AudioTTL: 10 * time.Millisecond})
	defer s.Close()

	id, err := s.StoreAudio([]byte("RIFF"))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = s.RetrieveAndRemoveAudio(id)
	require.ErrorIs(t, err, asset.ErrNotFound)
	require.Equal(t, 0, s.Len(asset.KindAudio))
}

func TestStore_ImageExpiresAfterReads(t *testing.T) {
	s := tempstore.New(tempstore.Options{ImageTTL: 20 * time.Millisecond})
	defer s.Close()

	id, err := s.StoreImage([]byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	_, _, err = s.RetrieveImage(id)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, _, err = s.RetrieveImage(id)
	require.ErrorIs(t, err, asset.ErrNotFound)
	require.Equal(t, 0, s.Len(asset.KindImage))
}

func TestStore_Isolation(t *testing.T) {
	s := tempstore.New(tempstore.Options{})
	defer s.Close()

	id1, err := s.StoreAudio([]byte("one"))
	require.NoError(t, err)
	id2, err := s.StoreAudio([]byte("two"))
	require.NoError(t, err)
	img, err := s.StoreImage([]byte("three"), "image/gif")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	_, err = s.RetrieveAndRemoveAudio(id1)
	require.NoError(t, err)

	got, err := s.RetrieveAndRemoveAudio(id2)
	require.NoError(t, err)
	require.Equal(t, []byte("two"), got)

	gotImg, mime, err := s.RetrieveImage(img)
	require.NoError(t, err)
	require.Equal(t, []byte("three"), gotImg)
	require.Equal(t, "image/gif", mime)
}

func TestStore_ExpiryOfOneEntryLeavesNeighbours(t *testing.T) {
	s := tempstore.New(tempstore.Options{AudioTTL: 10 * time.Millisecond, ImageTTL: time.Minute})
	defer s.Close()

	short, err := s.StoreAudio([]byte("short"))
	require.NoError(t, err)
	long, err := s.StoreImage([]byte("long"), "image/png")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = s.RetrieveAndRemoveAudio(short)
	require.ErrorIs(t, err, asset.ErrNotFound)
	require.Equal(t, 0, s.Len(asset.KindAudio))

	got, mime, err := s.RetrieveImage(long)
	require.NoError(t, err)
	require.Equal(t, []byte("long"), got)
	require.Equal(t, "image/png", mime)
	require.Equal(t, 1, s.Len(asset.KindImage))
}

func TestStore_UnknownAndWrongKind(t *testing.T) {
	s := tempstore.New(tempstore.Options{})
	defer s.Close()

	_, err := s.RetrieveAndRemoveAudio("temp-0-deadbeef")
	assert.ErrorIs(t, err, asset.ErrNotFound)
	_, _, err = s.RetrieveImage("img-0-deadbeef")
	assert.ErrorIs(t, err, asset.ErrNotFound)
	_, _, err = s.RetrieveImage("")
	assert.ErrorIs(t, err, asset.ErrNotFound)

	audioID, err := s.StoreAudio([]byte("a"))
	require.NoError(t, err)
	imageID, err := s.StoreImage([]byte("i"), "image/png")
	require.NoError(t, err)

	_, _, err = s.RetrieveImage(audioID)
	assert.ErrorIs(t, err, asset.ErrNotFound)
	_, err = s.RetrieveAndRemoveAudio(imageID)
	assert.ErrorIs(t, err, asset.ErrNotFound)

	// the wrong-kind lookups above must not have consumed anything
	_, err = s.RetrieveAndRemoveAudio(audioID)
	assert.NoError(t, err)
	_, _, err = s.RetrieveImage(imageID)
	assert.NoError(t, err)
}

func TestStore_RejectsEmptyPayload(t *testing.T) {
	s := tempstore.New(tempstore.Options{})
	defer s.Close()

	_, err := s.StoreAudio(nil)
	require.ErrorIs(t, err, asset.ErrEmptyPayload)
	_, err = s.StoreImage([]byte{}, "image/png")
	require.ErrorIs(t, err, asset.ErrEmptyPayload)
}

func TestStore_ConcurrentClaimHasSingleWinner(t *testing.T) {
	s := tempstore.New(tempstore.Options{})
	defer s.Close()

	payload := bytes.Repeat([]byte{0xAB}, 4096)
	id, err := s.StoreAudio(payload)
	require.NoError(t, err)

	var wins, misses atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.RetrieveAndRemoveAudio(id)
			switch {
			case err == nil:
				if bytes.Equal(got, payload) {
					wins.Add(1)
				}
			case errors.Is(err, asset.ErrNotFound):
				misses.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
	require.EqualValues(t, 31, misses.Load())
}

func TestStore_ClaimRacingExpiry(t *testing.T) {
	s := tempstore.New(tempstore.Options{AudioTTL: time.Millisecond})
	defer s.Close()

	for i := 0; i < 200; i++ {
		id, err := s.StoreAudio([]byte{byte(i), 1})
		require.NoError(t, err)
		if i%2 == 0 {
			time.Sleep(time.Millisecond)
		}
		got, err := s.RetrieveAndRemoveAudio(id)
		if err != nil {
			require.ErrorIs(t, err, asset.ErrNotFound)
			continue
		}
		require.Equal(t, []byte{byte(i), 1}, got)
	}

	require.Eventually(t, func() bool { return s.Len(asset.KindAudio) == 0 }, time.Second, 5*time.Millisecond)
}

func TestStore_CloseDropsEntries(t *testing.T) {
	s := tempstore.New(tempstore.Options{})

	id, err := s.StoreImage([]byte("x"), "image/png")
	require.NoError(t, err)
	s.Close()

	_, _, err = s.RetrieveImage(id)
	require.ErrorIs(t, err, asset.ErrNotFound)
	_, err = s.StoreAudio([]byte("y"))
	require.Error(t, err)
}

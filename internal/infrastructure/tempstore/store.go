// Package tempstore keeps uploaded audio and images in process memory for a
// short time so they can be fetched by URL when no bucket is configured.
package tempstore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/ports"
)

// Options configures entry lifetimes. Zero values fall back to the asset defaults.
type Options struct {
	AudioTTL time.Duration
	ImageTTL time.Duration
	Logger   *logrus.Logger
}

type entry struct {
	id        string
	kind      asset.Kind
	payload   []byte
	mimeType  string
	expiresAt time.Time
	timer     *time.Timer
}

// Store is a map of live entries guarded by a single mutex. Each entry owns a
// timer that evicts it at its deadline.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	audioTTL time.Duration
	imageTTL time.Duration
	logger   *logrus.Logger

	now func() time.Time
}

var _ ports.TempAssetStore = (*Store)(nil)

func New(opts Options) *Store {
	s := &Store{
		entries:  make(map[string]*entry),
		audioTTL: opts.AudioTTL,
		imageTTL: opts.ImageTTL,
		logger:   opts.Logger,
		now:      time.Now,
	}
	if s.audioTTL <= 0 {
		s.audioTTL = asset.DefaultAudioTTL
	}
	if s.imageTTL <= 0 {
		s.imageTTL = asset.DefaultImageTTL
	}
	return s
}

func (s *Store) StoreAudio(payload []byte) (string, error) {
	return s.put(asset.KindAudio, payload, asset.AudioMimeType, s.audioTTL)
}

func (s *Store) StoreImage(payload []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = asset.DefaultImageMimeType
	}
	return s.put(asset.KindImage, payload, mimeType, s.imageTTL)
}

// RetrieveAndRemoveAudio claims an audio entry. Only the first caller gets the payload.
func (s *Store) RetrieveAndRemoveAudio(id string) ([]byte, error) {
	data, _, err := s.retrieve(id, asset.KindAudio)
	return data, err
}

func (s *Store) RetrieveImage(id string) ([]byte, string, error) {
	return s.retrieve(id, asset.KindImage)
}

// retrieve applies the kind's read policy: consuming kinds are removed and
// their timer stopped under the same lock as the lookup; the rest are copied.
func (s *Store) retrieve(id string, kind asset.Kind) ([]byte, string, error) {
	s.mu.Lock()
	e, ok := s.lookupLocked(id, kind)
	if ok && kind.ConsumeOnRead() {
		e.timer.Stop()
		delete(s.entries, id)
	}
	s.mu.Unlock()

	if !ok {
		return nil, "", asset.ErrNotFound
	}
	if kind.ConsumeOnRead() {
		s.debug(e, "temp "+kind.String()+" claimed")
		return e.payload, e.mimeType, nil
	}
	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out, e.mimeType, nil
}

// Len returns the number of live entries of the given kind.
func (s *Store) Len(kind asset.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.kind == kind {
			n++
		}
	}
	return n
}

// Close stops every pending timer and drops all entries. Later stores fail.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
	s.closed = true
}

func (s *Store) put(kind asset.Kind, payload []byte, mimeType string, ttl time.Duration) (string, error) {
	if len(payload) == 0 {
		return "", asset.ErrEmptyPayload
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)

	now := s.now()
	e := &entry{
		id:        newID(kind, now),
		kind:      kind,
		payload:   buf,
		mimeType:  mimeType,
		expiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", fmt.Errorf("temp store closed")
	}
	s.entries[e.id] = e
	e.timer = time.AfterFunc(ttl, func() { s.expire(e) })
	s.mu.Unlock()

	s.debug(e, "temp asset stored")
	return e.id, nil
}

// expire runs on the entry's timer goroutine. The slot is only removed if it
// still holds e; a claimed or replaced slot is left alone.
func (s *Store) expire(e *entry) {
	s.mu.Lock()
	cur, ok := s.entries[e.id]
	if ok && cur == e {
		delete(s.entries, e.id)
	}
	s.mu.Unlock()

	if ok && cur == e {
		s.debug(e, "temp asset expired")
	}
}

func (s *Store) lookupLocked(id string, kind asset.Kind) (*entry, bool) {
	e, ok := s.entries[id]
	if !ok || e.kind != kind {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		e.timer.Stop()
		delete(s.entries, id)
		return nil, false
	}
	return e, true
}

func (s *Store) debug(e *entry, msg string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"id":   e.id,
		"kind": e.kind.String(),
		"size": humanize.Bytes(uint64(len(e.payload))),
	}).Debug(msg)
}

func newID(kind asset.Kind, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%d-%s", kind.IDPrefix(), now.UnixMilli(), random)
}

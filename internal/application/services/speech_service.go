package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/ports"
)

type SpeechConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// SpeechService forwards audio to the recognizer and retries while the
// upstream reports it is busy.
type SpeechService struct {
	recognizer  ports.SpeechRecognizer
	maxAttempts int
	retryDelay  time.Duration
	logger      *logrus.Logger
}

// NewSpeechService accepts a nil recognizer when no API key is configured.
func NewSpeechService(recognizer ports.SpeechRecognizer, cfg SpeechConfig, logger *logrus.Logger) ports.SpeechService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	return &SpeechService{recognizer: recognizer, maxAttempts: cfg.MaxAttempts, retryDelay: cfg.RetryDelay, logger: logger}
}

func (s *SpeechService) Configured() bool {
	return s.recognizer != nil
}

func (s *SpeechService) Recognize(ctx context.Context, src asset.AudioSource) (*asset.Transcript, error) {
	if src.Empty() {
		return nil, fmt.Errorf("audioUrl or audioBase64 is required")
	}
	if s.recognizer == nil {
		return nil, asset.ErrAIUnavailable
	}
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		t, err := s.recognizer.Recognize(ctx, src)
		if err == nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"attempt": attempt, "duration": t.Duration}).Info("speech recognized")
			}
			return t, nil
		}
		lastErr = err
		if !errors.Is(err, asset.ErrUpstreamBusy) || attempt == s.maxAttempts {
			break
		}
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"attempt": attempt}).WithError(err).Warn("speech recognizer busy, retrying")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return nil, fmt.Errorf("speech recognition failed: %w", lastErr)
}

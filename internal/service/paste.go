package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/yuvipaste/yuvipaste/internal/metrics"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/repository"
)

var pasteIDRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// ValidPasteID reports whether id has the shape of a paste ID.
func ValidPasteID(id string) bool {
	return pasteIDRegex.MatchString(id)
}

// PasteService serves paste reads.
type PasteService struct {
	pastes  PasteStore
	cache   PasteCache // optional
	metrics metrics.Recorder
}

// NewPasteService creates a new paste service. pc may be nil.
func NewPasteService(pastes PasteStore, pc PasteCache, recorder metrics.Recorder) *PasteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PasteService{
		pastes:  pastes,
		cache:   pc,
		metrics: recorder,
	}
}

// ListPastes returns the account's pastes, newest first.
func (s *PasteService) ListPastes(ctx context.Context, accountID string) ([]*model.Paste, error) {
	pastes, err := s.pastes.ListPastesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list pastes: %w", err)
	}
	return pastes, nil
}

// GetPaste returns the paste with the given ID, or nil if none exists.
func (s *PasteService) GetPaste(ctx context.Context, id string) (*model.Paste, error) {
	start := time.Now()
	defer func() { s.metrics.ObservePasteReadDuration(time.Since(start)) }()

	if !ValidPasteID(id) {
		return nil, nil
	}

	if s.cache != nil {
		if neg, err := s.cache.IsNegativelyCached(ctx, id); err == nil && neg {
			return nil, nil
		}
		// Redis errors are treated as misses.
		if p, err := s.cache.GetPaste(ctx, id); err == nil {
			s.metrics.IncPasteCacheHit()
			return p, nil
		}
		s.metrics.IncPasteCacheMiss()
	}

	p, err := s.pastes.GetPasteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPasteNotFound) {
			if s.cache != nil {
				_ = s.cache.SetNegativeCache(ctx, id)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("get paste: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.SetPaste(ctx, p)
	}
	return p, nil
}

// RecordView increments the paste's view counter and returns the new
// count. Without a cache views are not tracked and 0 is returned.
func (s *PasteService) RecordView(ctx context.Context, id string) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.IncrementViews(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return n, nil
}

// Views returns the paste's view count without incrementing it.
func (s *PasteService) Views(ctx context.Context, id string) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.GetViews(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("get views: %w", err)
	}
	return n, nil
}

// TracksViews reports whether view counting is enabled.
func (s *PasteService) TracksViews() bool {
	return s.cache != nil
}

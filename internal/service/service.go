// Package service orchestrates the add-URL, listing and check-trigger flows,
// wiring the normalizer, the repository and the page checker together.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/avkazmin/page-analyzer/internal/checker"
	"github.com/avkazmin/page-analyzer/internal/metrics"
	"github.com/avkazmin/page-analyzer/internal/store"
	"github.com/avkazmin/page-analyzer/internal/urls"
)

// ValidationError reports why a submitted URL was rejected. The messages are
// user-facing.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "invalid url"
	}
	return e.Messages[0]
}

// PageChecker performs one fetch-and-extract attempt against a URL.
type PageChecker interface {
	Check(ctx context.Context, url string) (store.CheckResult, error)
}

// Service holds the collaborators for the core flows. Dependencies are
// injected at construction; there is no ambient shared state.
type Service struct {
	repo    store.URLRepository
	checker PageChecker
	logger  *zap.Logger
}

// New wires the repository, checker and logger into a Service.
func New(repo store.URLRepository, pc PageChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		checker: pc,
		logger:  logger,
	}
}

// AddResult is the outcome of AddURL.
type AddResult struct {
	ID int64
	// Created is false when the normalized URL was already registered and
	// the existing id is returned instead.
	Created bool
}

// AddURL validates and normalizes raw, then registers it unless an equivalent
// URL already exists. Validation failures come back as *ValidationError.
func (s *Service) AddURL(ctx context.Context, raw string) (AddResult, error) {
	if errs := urls.Validate(raw); len(errs) > 0 {
		messages := make([]string, 0, len(errs))
		for _, err := range errs {
			messages = append(messages, validationMessage(err))
		}
		return AddResult{}, &ValidationError{Messages: messages}
	}

	name := urls.Normalize(raw)
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return AddResult{ID: existing.ID, Created: false}, nil
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Error("find url failed", zap.String("name", name), zap.Error(err))
		return AddResult{}, fmt.Errorf("find url: %w", err)
	}

	id, err := s.repo.SaveURL(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateURL) {
			// Lost the race against a concurrent insert; the winner's
			// row is the one we want.
			if existing, findErr := s.repo.FindByName(ctx, name); findErr == nil {
				return AddResult{ID: existing.ID, Created: false}, nil
			}
			return AddResult{}, fmt.Errorf("resolve duplicate url: %w", err)
		}
		s.logger.Error("save url failed", zap.String("name", name), zap.Error(err))
		return AddResult{}, fmt.Errorf("save url: %w", err)
	}
	metrics.ObserveURLRegistered()
	s.logger.Info("url registered", zap.Int64("id", id), zap.String("name", name))
	return AddResult{ID: id, Created: true}, nil
}

// ListURLs returns every registered URL with its last-check summary.
func (s *Service) ListURLs(ctx context.Context) ([]store.URLSummary, error) {
	summaries, err := s.repo.ListURLs(ctx)
	if err != nil {
		s.logger.Error("list urls failed", zap.Error(err))
		return nil, fmt.Errorf("list urls: %w", err)
	}
	return summaries, nil
}

// URLDetail is a URL together with its recorded check history.
type URLDetail struct {
	URL    store.URL
	Checks []store.URLCheck
}

// GetURL loads one URL and its history, or store.ErrNotFound.
func (s *Service) GetURL(ctx context.Context, id int64) (URLDetail, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return URLDetail{}, store.ErrNotFound
		}
		s.logger.Error("find url failed", zap.Int64("id", id), zap.Error(err))
		return URLDetail{}, fmt.Errorf("find url: %w", err)
	}
	checks, err := s.repo.ListChecks(ctx, id)
	if err != nil {
		s.logger.Error("list checks failed", zap.Int64("id", id), zap.Error(err))
		return URLDetail{}, fmt.Errorf("list checks: %w", err)
	}
	return URLDetail{URL: u, Checks: checks}, nil
}

// RunCheck fetches the URL's page and appends the outcome to its history.
// A transport failure writes nothing and surfaces as *checker.FetchError;
// when any HTTP response was received the observed status is recorded even
// for non-2xx answers.
func (s *Service) RunCheck(ctx context.Context, id int64) error {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		s.logger.Error("find url failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("find url: %w", err)
	}

	result, err := s.checker.Check(ctx, u.Name)
	if err != nil {
		metrics.ObserveCheck(metrics.CheckOutcomeFetchError)
		s.logger.Warn("page check failed", zap.String("url", u.Name), zap.Error(err))
		return fmt.Errorf("check %s: %w", u.Name, err)
	}

	if err := s.repo.SaveCheck(ctx, id, result); err != nil {
		metrics.ObserveCheck(metrics.CheckOutcomeStoreError)
		s.logger.Error("save check failed", zap.Int64("url_id", id), zap.Error(err))
		return fmt.Errorf("save check: %w", err)
	}
	metrics.ObserveCheck(metrics.CheckOutcomeOK)
	s.logger.Info("check recorded",
		zap.Int64("url_id", id),
		zap.String("url", u.Name),
		zap.Intp("status", result.StatusCode),
	)
	return nil
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, urls.ErrURLTooLong):
		return "URL must not exceed 255 characters"
	case errors.Is(err, urls.ErrInvalidURL):
		return "Invalid URL"
	default:
		return err.Error()
	}
}

var _ PageChecker = (*checker.Checker)(nil)

package journal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"emosante/internal/cache"
	"emosante/internal/observability"
	"emosante/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrForbidden    = errors.New("entry belongs to another user")
	ErrInvalidEntry = errors.New("entry text is required")
)

// Publisher hands analysis jobs to the worker queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

type JournalServiceInterface interface {
	CreateEntry(ctx context.Context, userID int, req EntryRequest) (*Entry, error)
	GetEntry(ctx context.Context, userID, entryID int) (*Entry, error)
	ListEntries(ctx context.Context, userID int, query string) ([]*Entry, error)
	UpdateEntry(ctx context.Context, userID, entryID int, req EntryRequest) (*Entry, error)
	DeleteEntry(ctx context.Context, userID, entryID int) error
}

type JournalService struct {
	repo      EntryRepositoryInterface
	db        *sqlx.DB
	cache     *cache.JSONCache
	analyzer  *Analyzer
	publisher Publisher
}

// NewJournalService builds the service. With a nil publisher entries are
// analyzed inline before the call returns.
func NewJournalService(repo EntryRepositoryInterface, db *sqlx.DB, c *cache.JSONCache, analyzer *Analyzer, publisher Publisher) JournalServiceInterface {
	return &JournalService{
		repo:      repo,
		db:        db,
		cache:     c,
		analyzer:  analyzer,
		publisher: publisher,
	}
}

func (s *JournalService) CreateEntry(ctx context.Context, userID int, req EntryRequest) (*Entry, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrInvalidEntry
	}

	ts := now()
	entry := &Entry{
		UserID:    userID,
		Title:     strings.TrimSpace(req.Title),
		Text:      req.Text,
		Status:    StatusPending,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if err := utils.WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		id, err := s.repo.Create(ctx, tx, entry)
		if err != nil {
			return err
		}
		entry.ID = id
		return nil
	}); err != nil {
		return nil, err
	}

	observability.GlobalMetrics.EntriesCreatedTotal.Inc()
	s.invalidate(ctx, entry)

	return s.dispatch(ctx, entry)
}

func (s *JournalService) GetEntry(ctx context.Context, userID, entryID int) (*Entry, error) {
	cacheKey := cache.EntryKey(entryID)
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cachedData != nil {
		var entry Entry
		if json.Unmarshal(cachedData, &entry) == nil {
			observability.GlobalMetrics.CacheHitsTotal.WithLabelValues("entry").Inc()
			return ownedBy(&entry, userID)
		}
	}
	if s.cache.Enabled() {
		observability.GlobalMetrics.CacheMissesTotal.WithLabelValues("entry").Inc()
	}

	entry, err := s.repo.GetByID(ctx, s.db, entryID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, entry); err != nil {
		logrus.WithError(err).Warn("Failed to set cache for journal entry")
	}

	return ownedBy(entry, userID)
}

// ListEntries returns the user's entries, newest first. A non-empty query
// filters by title, text or emotion and bypasses the cache.
func (s *JournalService) ListEntries(ctx context.Context, userID int, query string) ([]*Entry, error) {
	if query = strings.TrimSpace(query); query != "" {
		return s.repo.SearchByUserID(ctx, s.db, userID, query)
	}

	cacheKey := cache.UserEntriesKey(userID)
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cachedData != nil {
		var entries []*Entry
		if json.Unmarshal(cachedData, &entries) == nil {
			observability.GlobalMetrics.CacheHitsTotal.WithLabelValues("user_entries").Inc()
			return entries, nil
		}
	}
	if s.cache.Enabled() {
		observability.GlobalMetrics.CacheMissesTotal.WithLabelValues("user_entries").Inc()
	}

	entries, err := s.repo.GetByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, entries); err != nil {
		logrus.WithError(err).Warn("Failed to set cache for user entries")
	}

	return entries, nil
}

func (s *JournalService) UpdateEntry(ctx context.Context, userID, entryID int, req EntryRequest) (*Entry, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrInvalidEntry
	}

	entry, err := s.loadOwned(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if err := utils.WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.repo.UpdateContent(ctx, tx, entryID, strings.TrimSpace(req.Title), req.Text)
	}); err != nil {
		return nil, err
	}
	s.invalidate(ctx, entry)

	updated, err := s.repo.GetByID(ctx, s.db, entryID)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, updated)
}

func (s *JournalService) DeleteEntry(ctx context.Context, userID, entryID int) error {
	entry, err := s.loadOwned(ctx, userID, entryID)
	if err != nil {
		return err
	}

	if err := utils.WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.repo.Delete(ctx, tx, entryID)
	}); err != nil {
		return err
	}

	s.invalidate(ctx, entry)
	return nil
}

// dispatch queues the entry for analysis, or analyzes it inline when no
// publisher is configured or publishing fails.
func (s *JournalService) dispatch(ctx context.Context, entry *Entry) (*Entry, error) {
	payload := AnalysisPayload{EntryID: entry.ID, UserID: entry.UserID}

	if s.publisher != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		err = s.publisher.Publish(ctx, body)
		if err == nil {
			return entry, nil
		}
		logrus.WithError(err).WithField("entry_id", entry.ID).Warn("Failed to queue analysis, analyzing inline")
	}

	if _, err := s.analyzer.Analyze(ctx, payload); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, s.db, entry.ID)
}

func (s *JournalService) loadOwned(ctx context.Context, userID, entryID int) (*Entry, error) {
	entry, err := s.repo.GetByID(ctx, s.db, entryID)
	if err != nil {
		return nil, err
	}
	return ownedBy(entry, userID)
}

func (s *JournalService) invalidate(ctx context.Context, entry *Entry) {
	if err := s.cache.Delete(ctx, cache.EntryKey(entry.ID), cache.UserEntriesKey(entry.UserID)); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate journal cache")
	}
}

func ownedBy(entry *Entry, userID int) (*Entry, error) {
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	return entry, nil
}

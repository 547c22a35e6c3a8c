package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CrashSentinel/internal/model"
)

// Store owns the file-backed cache document. All mutation goes through it;
// the mutex serializes concurrent writers around the stamp-and-write step.
// Reads are not blocked by the lock (best-effort durability, not
// transactional).
type Store struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewStore creates a store backed by the given JSON file. The file does not
// need to exist yet.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		logger: log.With().Str("component", "cache_store").Logger(),
	}
}

// Load reads the backing document in full. Any read or parse failure yields
// an empty document rather than an error, so callers treat a broken cache
// the same as a cold one.
//
// A legacy single-symbol document (no "symbols" wrapper) is migrated in
// place under the default symbol and persisted immediately.
func (s *Store) Load() *model.CacheDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("cache read failed, starting empty")
		}
		return model.NewCacheDocument()
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("cache parse failed, starting empty")
		return model.NewCacheDocument()
	}

	if _, ok := probe["symbols"]; !ok {
		return s.migrateLegacy(data)
	}

	var doc model.CacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("cache decode failed, starting empty")
		return model.NewCacheDocument()
	}
	if doc.Symbols == nil {
		doc.Symbols = make(map[string]*model.AnalysisRecord)
	}
	return &doc
}

// migrateLegacy wraps a pre-multi-symbol document under the default symbol
// and persists the migrated form so the next load takes the normal path.
func (s *Store) migrateLegacy(data []byte) *model.CacheDocument {
	var rec model.AnalysisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn().Err(err).Msg("legacy cache decode failed, starting empty")
		return model.NewCacheDocument()
	}

	doc := model.NewCacheDocument()
	doc.Symbols[model.DefaultSymbol] = &rec
	doc.LastUpdated = rec.Timestamp
	if doc.LastUpdated == "" {
		doc.LastUpdated = time.Now().Format(model.TimestampLayout)
	}

	s.logger.Info().Str("symbol", model.DefaultSymbol).Msg("migrated legacy single-symbol cache")
	if err := s.Save(doc); err != nil {
		s.logger.Error().Err(err).Msg("persist migrated cache failed")
	}
	return doc
}

// Save stamps lastUpdated and atomically replaces the backing file with the
// full document.
func (s *Store) Save(doc *model.CacheDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.LastUpdated = time.Now().Format(model.TimestampLayout)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	s.logger.Debug().Str("path", s.path).Int("symbols", len(doc.Symbols)).Msg("cache saved")
	return nil
}

// GetSymbol returns the stored record for a symbol, if any.
func (s *Store) GetSymbol(symbol string) (*model.AnalysisRecord, bool) {
	doc := s.Load()
	rec, ok := doc.Symbols[symbol]
	return rec, ok
}

// UpsertSymbol replaces one symbol's record via a whole-document
// read-modify-write. The load/save pair is not covered by the write lock
// end to end, so two concurrent upserts can interleave and the loser's view
// of unrelated symbols wins (last writer wins at document granularity).
func (s *Store) UpsertSymbol(symbol string, rec *model.AnalysisRecord) error {
	doc := s.Load()
	doc.Symbols[symbol] = rec
	return s.Save(doc)
}

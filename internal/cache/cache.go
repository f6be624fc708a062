// Package cache provides the optional on-disk evidence cache: a SQLite
// table of zstd-compressed strategy results with a small LRU in front.
// The cache is never required for correctness — every failure, corruption,
// or expiry reads as a miss and the caller re-fetches.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"depsafe/internal/errors"
	"depsafe/internal/evidence"
	"depsafe/internal/logging"
)

// Options configures the store.
type Options struct {
	// Dir is where the database file lives, typically ".depsafe".
	Dir string
	// TTL is how long an entry stays valid. Zero means the default.
	TTL time.Duration
	// MemoryEntries sizes the in-memory LRU layer. Zero means the default.
	MemoryEntries int
}

const (
	defaultTTL           = 7 * 24 * time.Hour
	defaultMemoryEntries = 256
	dbFileName           = "evidence.db"
)

// Store implements evidence.Cache on SQLite with zstd-compressed payloads.
type Store struct {
	conn    *sql.DB
	ttl     time.Duration
	mem     *lru.Cache[evidence.CacheKey, *evidence.StrategyResult]
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *logging.Logger
}

var _ evidence.Cache = (*Store)(nil)

// Open opens or creates the cache database under opts.Dir.
func Open(opts Options, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = defaultMemoryEntries
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.New(errors.CacheUnavailable, "failed to create cache directory", err)
	}

	conn, err := sql.Open("sqlite", filepath.Join(opts.Dir, dbFileName))
	if err != nil {
		return nil, errors.New(errors.CacheUnavailable, "failed to open cache database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.New(errors.CacheUnavailable, "failed to set pragma", err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.New(errors.CacheUnavailable, "failed to initialize cache schema", err)
	}

	mem, err := lru.New[evidence.CacheKey, *evidence.StrategyResult](opts.MemoryEntries)
	if err != nil {
		conn.Close()
		return nil, errors.New(errors.CacheUnavailable, "failed to create memory cache", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, errors.New(errors.CacheUnavailable, "failed to create compressor", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, errors.New(errors.CacheUnavailable, "failed to create decompressor", err)
	}

	return &Store{
		conn:    conn,
		ttl:     opts.TTL,
		mem:     mem,
		encoder: encoder,
		decoder: decoder,
		logger:  logger,
	}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS evidence (
	package      TEXT NOT NULL,
	from_version TEXT NOT NULL,
	to_version   TEXT NOT NULL,
	source_name  TEXT NOT NULL,
	payload      BLOB NOT NULL,
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (package, from_version, to_version, source_name)
);
CREATE INDEX IF NOT EXISTS idx_evidence_created ON evidence(created_at);
`

// Get returns the cached result for key, or a miss. Expired and unreadable
// entries are misses.
func (s *Store) Get(ctx context.Context, key evidence.CacheKey) (*evidence.StrategyResult, bool) {
	if result, ok := s.mem.Get(key); ok {
		return result, true
	}

	cutoff := time.Now().Add(-s.ttl).Unix()
	var payload []byte
	err := s.conn.QueryRowContext(ctx, `
		SELECT payload FROM evidence
		WHERE package = ? AND from_version = ? AND to_version = ? AND source_name = ?
		  AND created_at >= ?`,
		key.Package, key.FromVersion, key.ToVersion, key.SourceName, cutoff,
	).Scan(&payload)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Debug("Cache read failed", map[string]interface{}{
				"package": key.Package,
				"source":  key.SourceName,
				"error":   err.Error(),
			})
		}
		return nil, false
	}

	raw, err := s.decoder.DecodeAll(payload, nil)
	if err != nil {
		s.logger.Debug("Cache entry is corrupt", map[string]interface{}{
			"package": key.Package,
			"source":  key.SourceName,
			"error":   err.Error(),
		})
		return nil, false
	}

	var result evidence.StrategyResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false
	}
	s.mem.Add(key, &result)
	return &result, true
}

// Put stores a result. Failures are logged and dropped: the cache is
// write-through, never load-bearing.
func (s *Store) Put(ctx context.Context, key evidence.CacheKey, result *evidence.StrategyResult) {
	if result == nil {
		return
	}
	s.mem.Add(key, result)

	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	payload := s.encoder.EncodeAll(raw, nil)

	_, err = s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO evidence
			(package, from_version, to_version, source_name, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		key.Package, key.FromVersion, key.ToVersion, key.SourceName, payload, time.Now().Unix(),
	)
	if err != nil {
		s.logger.Debug("Cache write failed", map[string]interface{}{
			"package": key.Package,
			"source":  key.SourceName,
			"error":   err.Error(),
		})
	}
}

// Prune deletes expired rows and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.ttl).Unix()
	res, err := s.conn.ExecContext(ctx, "DELETE FROM evidence WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, errors.New(errors.CacheUnavailable, "failed to prune cache", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Clear drops every entry, disk and memory.
func (s *Store) Clear(ctx context.Context) error {
	s.mem.Purge()
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM evidence"); err != nil {
		return errors.New(errors.CacheUnavailable, "failed to clear cache", err)
	}
	return nil
}

// Stats reports entry count and total compressed payload size.
func (s *Store) Stats(ctx context.Context) (entries int64, bytes int64, err error) {
	row := s.conn.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0) FROM evidence")
	if err := row.Scan(&entries, &bytes); err != nil {
		return 0, 0, errors.New(errors.CacheUnavailable, "failed to read cache stats", err)
	}
	return entries, bytes, nil
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	return nil
}

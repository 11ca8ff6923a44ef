package site

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// VisitorMetric is one tracked page view. The client IP is never stored,
// only a salted hash of it.
type VisitorMetric struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	VisitedAt time.Time `json:"visited_at"`
}

type PathStat struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

type VisitorStats struct {
	TotalVisitors    int64      `json:"total_visitors"`
	UniqueVisitors   int64      `json:"unique_visitors"`
	VisitorsToday    int64      `json:"visitors_today"`
	VisitorsThisWeek int64      `json:"visitors_this_week"`
	TopPaths         []PathStat `json:"top_paths"`
}

const topPathsLimit = 10

// Paths that are never tracked.
var untrackedPrefixes = []string{"/static/", "/health", "/api/stats", "/favicon"}

// VisitorStore records page views in SQLite. The hashing salt is generated
// per process, so hashes from different runs never correlate.
type VisitorStore struct {
	db   *sql.DB
	salt string
	now  func() time.Time
	log  *zap.Logger
}

// OpenVisitorStore opens dsn with the modernc SQLite driver and creates the
// schema. ":memory:" keeps everything in process.
func OpenVisitorStore(ctx context.Context, dsn string, log *zap.Logger) (*VisitorStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open visitor store: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	salt, err := newSalt()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &VisitorStore{db: db, salt: salt, now: time.Now, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("visitor tracking enabled with hashed IP addresses", zap.String("dsn", dsn))
	return s, nil
}

func newSalt() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate hashing salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *VisitorStore) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,
		user_agent TEXT,
		path TEXT,
		visited_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_visitors_visited_at ON visitors (visited_at);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create visitors table: %w", err)
	}
	return nil
}

// hashIP is stable for an IP within one process.
func (s *VisitorStore) hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *VisitorStore) Record(ctx context.Context, ip, userAgent, path string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, visited_at) VALUES (?, ?, ?, ?)`,
		s.hashIP(ip), userAgent, path, s.now().Unix())
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// Recent returns the latest visits, newest first.
func (s *VisitorStore) Recent(ctx context.Context, limit int) ([]VisitorMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), visited_at
		FROM visitors
		ORDER BY visited_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent visitors: %w", err)
	}
	defer rows.Close()

	var out []VisitorMetric
	for rows.Next() {
		var (
			m  VisitorMetric
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.HashedIP, &m.UserAgent, &m.Path, &ts); err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		m.VisitedAt = time.Unix(ts, 0).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *VisitorStore) Stats(ctx context.Context) (*VisitorStats, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &VisitorStats{TopPaths: []PathStat{}}

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{midnight.Unix()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{weekAgo.Unix()}},
	}
	for _, q := range counts {
		if err := s.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("visitor stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS views
		FROM visitors
		GROUP BY path
		ORDER BY views DESC, path ASC
		LIMIT ?`, topPathsLimit)
	if err != nil {
		return nil, fmt.Errorf("top paths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p PathStat
		if err := rows.Scan(&p.Path, &p.Views); err != nil {
			return nil, fmt.Errorf("scan top path: %w", err)
		}
		stats.TopPaths = append(stats.TopPaths, p)
	}
	return stats, rows.Err()
}

// Cleanup deletes visits older than retention and returns how many went.
func (s *VisitorStore) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE visited_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup visitors: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.log.Info("removed expired visitor records", zap.Int64("rows", n), zap.Duration("retention", retention))
	}
	return n, nil
}

func (s *VisitorStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *VisitorStore) Close() error {
	return s.db.Close()
}

func tracked(path string) bool {
	for _, p := range untrackedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

// Middleware records successful GET page views. Requests carrying DNT: 1 are
// not recorded.
func (s *VisitorStore) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || !tracked(path) || c.GetHeader("DNT") == "1" {
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		ctx := context.WithoutCancel(c.Request.Context())
		if err := s.Record(ctx, c.ClientIP(), c.GetHeader("User-Agent"), path); err != nil {
			s.log.Warn("error recording visitor",
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err))
		}
	}
}

func (s *VisitorStore) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.Stats(c.Request.Context())
		if err != nil {
			s.log.Error("failed to load visitor stats", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgStatsFailed})
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}

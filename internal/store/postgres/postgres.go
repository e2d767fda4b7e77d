package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/sitenotifier/internal/domain"
	"github.com/hamed0406/sitenotifier/internal/store"
)

var _ store.SiteStore = (*Store)(nil)

// Schema is applied by EnsureSchema. position keeps the list order.
const Schema = `
CREATE TABLE IF NOT EXISTS sites (
  position         INTEGER PRIMARY KEY,
  url              TEXT    NOT NULL,
  name             TEXT    NOT NULL DEFAULT '',
  enabled          BOOLEAN NOT NULL DEFAULT false,
  channel_webhook  TEXT    NULL,
  current_status   TEXT    NULL,
  failed_timestamp BIGINT  NULL,
  extra            JSONB   NOT NULL DEFAULT '{}'::jsonb
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.pool.Query(ctx, `
SELECT url, name, enabled, channel_webhook, current_status, failed_timestamp, extra
  FROM sites
 ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load sites: %w", err)
	}
	defer rows.Close()

	var out []domain.Site
	for rows.Next() {
		var (
			site   domain.Site
			status *string
			extra  []byte
		)
		if err := rows.Scan(&site.URL, &site.Name, &site.Enabled, &site.ChannelWebhook, &status, &site.FailedTimestamp, &extra); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		if status != nil {
			site.CurrentStatus = domain.Status(*status)
		}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &site.Extra); err != nil {
				return nil, fmt.Errorf("decode extra for %s: %w", site.URL, err)
			}
			if len(site.Extra) == 0 {
				site.Extra = nil
			}
		}
		out = append(out, site)
	}
	return out, rows.Err()
}

// Save replaces every row in one transaction, so a failed save leaves the
// previous list intact.
func (s *Store) Save(ctx context.Context, sites []domain.Site) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM sites`)
	for i, site := range sites {
		extra := []byte("{}")
		if len(site.Extra) > 0 {
			if extra, err = json.Marshal(site.Extra); err != nil {
				return fmt.Errorf("encode extra for %s: %w", site.URL, err)
			}
		}
		var status *string
		if site.CurrentStatus != domain.StatusUnknown {
			v := string(site.CurrentStatus)
			status = &v
		}
		batch.Queue(`
INSERT INTO sites (position, url, name, enabled, channel_webhook, current_status, failed_timestamp, extra)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)`,
			i, site.URL, site.Name, site.Enabled, site.ChannelWebhook, status, site.FailedTimestamp, string(extra))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write sites: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("sites_saved", zap.Int("count", len(sites)))
	return nil
}

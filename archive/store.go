package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbgateway/kbgateway/config"
	"github.com/kbgateway/kbgateway/confidence"
	"github.com/kbgateway/kbgateway/store"
)

// Archive is the gorm-backed metrics archive. It is independent of the
// Persistent State Store: the KV store is the tuner's working set, archive
// is the durable record operators query after the KV TTL has expired.
type Archive struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured archive database. Schema migrations are
// applied separately via `kbgateway migrate up` (internal/migration); Open
// does not run AutoMigrate.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Driver == "" {
		return nil, fmt.Errorf("archive database driver not configured")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported archive database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect archive database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.Info("metrics archive connected", zap.String("driver", cfg.Driver))
	return &Archive{db: db, logger: logger}, nil
}

// Save upserts a single QueryMetric, keyed by RequestID, so saving the same
// record again (for instance after feedback has landed on it) overwrites the
// earlier row. Drain is its caller in this repository.
func (a *Archive) Save(ctx context.Context, m confidence.QueryMetric) error {
	rec := fromQueryMetric(m)
	return a.db.WithContext(ctx).Save(&rec).Error
}

// Drain copies every QueryMetric currently in st that is newer than since
// into the archive, upserting by RequestID. It is the bridge between the
// ephemeral KV store and this durable archive; cmd/kbgateway runs it on an
// interval alongside the confidence tuner loop.
func (a *Archive) Drain(ctx context.Context, st store.Store, since time.Time) (int, error) {
	keys, err := st.GetAllActive(ctx, store.QueryMetricKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list query metrics: %w", err)
	}

	drained := 0
	for _, key := range keys {
		raw, found, err := st.Load(ctx, key)
		if err != nil || !found {
			continue
		}
		var m confidence.QueryMetric
		if err := json.Unmarshal(raw, &m); err != nil {
			a.logger.Warn("skipping unreadable query metric", zap.String("key", key), zap.Error(err))
			continue
		}
		if m.Timestamp.Before(since) {
			continue
		}
		if err := a.Save(ctx, m); err != nil {
			a.logger.Warn("failed to archive query metric", zap.String("request_id", m.RequestID), zap.Error(err))
			continue
		}
		drained++
	}
	return drained, nil
}

// Query returns archived QueryMetrics newer than since, most recent first,
// capped at limit. Used by operators inspecting history past the KV TTL.
func (a *Archive) Query(ctx context.Context, since time.Time, limit int) ([]confidence.QueryMetric, error) {
	if limit <= 0 {
		limit = 100
	}
	var recs []QueryMetricRecord
	if err := a.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query archived metrics: %w", err)
	}

	out := make([]confidence.QueryMetric, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toQueryMetric())
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

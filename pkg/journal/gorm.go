package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/security"
)

// GormJournal implements core.Journal using GORM.
type GormJournal struct {
	db *gorm.DB
}

var _ core.Journal = (*GormJournal)(nil)

// New creates a journal on an open database.
func New(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}

// Open connects to dsn, sizes the pool from PoolFor(dsn) and opts and
// migrates the schema.
// DSNs starting with postgres:// or postgresql://, or containing host=, use
// PostgreSQL; anything else is a SQLite path or URI.
func Open(dsn string, opts ...PoolOption) (*GormJournal, error) {
	db, err := gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := ConfigurePool(db, PoolFor(dsn).Apply(opts...)); err != nil {
		return nil, err
	}

	j := New(db)
	if err := j.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

// Dialector returns the GORM dialector for dsn.
func Dialector(dsn string) gorm.Dialector {
	if isSQLite(dsn) {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

func isSQLite(dsn string) bool {
	return !strings.HasPrefix(dsn, "postgres://") &&
		!strings.HasPrefix(dsn, "postgresql://") &&
		!strings.Contains(dsn, "host=")
}

// DB returns the underlying database handle.
func (j *GormJournal) DB() *gorm.DB {
	return j.db
}

// Close closes the underlying connection pool.
func (j *GormJournal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the necessary tables.
func (j *GormJournal) Migrate(ctx context.Context) error {
	return j.db.WithContext(ctx).AutoMigrate(&core.Invocation{})
}

// Record inserts inv, or updates it when a record with the same ID exists.
func (j *GormJournal) Record(ctx context.Context, inv *core.Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Status == "" {
		inv.Status = core.StatusRunning
	}
	if inv.StartedAt.IsZero() {
		inv.StartedAt = time.Now()
	}
	inv.Error = security.SanitizeErrorMessage(inv.Error)

	return j.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "error", "finished_at", "duration_ms"}),
		}).
		Create(inv).Error
}

// Get retrieves an invocation by ID.
func (j *GormJournal) Get(ctx context.Context, id string) (*core.Invocation, error) {
	var inv core.Invocation
	err := j.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrInvocationRecord, id)
		}
		return nil, err
	}
	return &inv, nil
}

// List returns the most recent invocations, newest first. An empty handler
// lists every handler.
func (j *GormJournal) List(ctx context.Context, handler string, limit int) ([]core.Invocation, error) {
	q := j.db.WithContext(ctx).Model(&core.Invocation{})
	if handler != "" {
		q = q.Where("handler = ?", handler)
	}

	var invs []core.Invocation
	err := q.Order("started_at DESC").
		Limit(security.ClampListLimit(limit)).
		Find(&invs).Error
	return invs, err
}

// Prune deletes finished invocations that started before the cutoff.
// Running invocations are kept.
func (j *GormJournal) Prune(ctx context.Context, before time.Time) (int64, error) {
	result := j.db.WithContext(ctx).
		Where("started_at < ?", before).
		Where("status <> ?", core.StatusRunning).
		Delete(&core.Invocation{})
	return result.RowsAffected, result.Error
}

// HandlerStats counts one handler's invocations by status.
type HandlerStats struct {
	Handler   string
	Running   int64
	Succeeded int64
	Failed    int64
}

// Stats returns per-handler invocation counts grouped by status.
func (j *GormJournal) Stats(ctx context.Context) ([]HandlerStats, error) {
	type row struct {
		Handler string
		Status  string
		Count   int64
	}
	var rows []row
	err := j.db.WithContext(ctx).
		Model(&core.Invocation{}).
		Select("handler, status, count(*) as count").
		Group("handler, status").
		Order("handler").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	var result []HandlerStats
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Handler]
		if !ok {
			i = len(result)
			index[r.Handler] = i
			result = append(result, HandlerStats{Handler: r.Handler})
		}
		switch core.InvocationStatus(r.Status) {
		case core.StatusRunning:
			result[i].Running += r.Count
		case core.StatusSucceeded:
			result[i].Succeeded += r.Count
		case core.StatusFailed:
			result[i].Failed += r.Count
		}
	}
	return result, nil
}

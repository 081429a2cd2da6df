package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/crime-ease/platform/internal/case/domain"
	"github.com/crime-ease/platform/internal/shared/metrics"
	"github.com/crime-ease/platform/internal/shared/types"
)

// Adapter polls a station's legacy occurrence-book register on SQL Server
// and imports new entries as cases. Imports pick up from the moment the
// adapter starts; historical backfill is a one-off migration, not this
// adapter's job.
type Adapter struct {
	db        *sql.DB
	config    Config
	stationID types.ID
	store     CaseStore
	logger    *zap.Logger

	running  bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// New creates a legacy register adapter
func New(cfg Config, stationID types.ID, store CaseStore, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.OccurrenceTable == "" {
		cfg.OccurrenceTable = DefaultConfig().OccurrenceTable
	}
	return &Adapter{
		config:    cfg,
		stationID: stationID,
		store:     store,
		logger:    logger,
	}
}

// Start opens the register connection and begins polling
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("adapter already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		a.config.Host,
		a.config.Port,
		a.config.Database,
		a.config.User,
		a.config.Password,
	)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open legacy register: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping legacy register: %w", err)
	}

	a.db = db
	a.running = true
	a.lastPoll = time.Now()

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.pollLoop(pollCtx)

	a.logger.Info("legacy register adapter started",
		zap.String("station", a.config.StationCode),
		zap.Duration("poll_interval", a.config.PollInterval))

	return nil
}

// Stop stops polling and closes the connection
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	// Wait unlocked: an in-flight poll takes the mutex to advance its
	// cursor, so holding it here would stall shutdown until the timeout.
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		a.db.Close()
	}

	a.running = false
	return nil
}

// Health checks register connectivity
func (a *Adapter) Health(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running {
		return fmt.Errorf("adapter not running")
	}

	return a.db.PingContext(ctx)
}

func (a *Adapter) pollLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.poll(ctx); err != nil {
				a.logger.Warn("legacy register poll failed",
					zap.String("station", a.config.StationCode),
					zap.Error(err))
			}
		}
	}
}

func (a *Adapter) poll(ctx context.Context) error {
	a.mu.Lock()
	since := a.lastPoll
	now := time.Now()
	a.mu.Unlock()

	records, err := a.fetchNewRecords(ctx, since)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if err := a.importRecord(ctx, rec); err != nil {
			metrics.RecordLegacyImport(a.config.StationCode, false)
			a.logger.Warn("failed to import occurrence entry",
				zap.String("entry_number", rec.EntryNumber),
				zap.Error(err))
			continue
		}
		metrics.RecordLegacyImport(a.config.StationCode, true)
	}

	a.mu.Lock()
	a.lastPoll = now
	a.mu.Unlock()

	if len(records) > 0 {
		a.logger.Info("imported legacy occurrence entries",
			zap.String("station", a.config.StationCode),
			zap.Int("count", len(records)))
	}

	return nil
}

func (a *Adapter) fetchNewRecords(ctx context.Context, since time.Time) ([]OccurrenceRecord, error) {
	query := fmt.Sprintf(`
		SELECT EntryID, EntryNumber, Title, Description, IncidentType,
			ReporterName, OccurredAt, RecordedAt
		FROM %s
		WHERE RecordedAt > @since
		ORDER BY RecordedAt`, a.config.OccurrenceTable)

	rows, err := a.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return nil, fmt.Errorf("failed to query occurrence book: %w", err)
	}
	defer rows.Close()

	var records []OccurrenceRecord
	for rows.Next() {
		var rec OccurrenceRecord
		var description, incidentType, reporterName sql.NullString

		err := rows.Scan(
			&rec.EntryID, &rec.EntryNumber, &rec.Title, &description, &incidentType,
			&reporterName, &rec.OccurredAt, &rec.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occurrence entry: %w", err)
		}

		rec.Description = description.String
		rec.IncidentType = incidentType.String
		rec.ReporterName = reporterName.String
		if rec.IncidentType == "" {
			rec.IncidentType = "unclassified"
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// importRecord maps one occurrence entry to a case. Legacy entries have no
// platform account behind them, so they import as anonymous reports with
// the desk entry reference recorded in the audit trail.
func (a *Adapter) importRecord(ctx context.Context, rec OccurrenceRecord) error {
	c, err := domain.NewCase(domain.NewCaseParams{
		Title:        rec.Title,
		Description:  rec.Description,
		IncidentType: rec.IncidentType,
		IncidentAt:   rec.OccurredAt,
		StationID:    a.stationID,
		IsAnonymous:  true,
	})
	if err != nil {
		return err
	}

	provenance := fmt.Sprintf("Imported from legacy OB, entry %s", rec.EntryNumber)
	if rec.ReporterName != "" {
		provenance += fmt.Sprintf(", reported at the desk by %s", rec.ReporterName)
	}
	if err := c.AddUpdate(provenance, domain.UpdateTypeEvidenceAdded, domain.VisibilityInternal, types.ID("")); err != nil {
		return err
	}

	return a.store.Save(ctx, c)
}

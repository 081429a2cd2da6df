package legacy

import (
	"context"
	"time"

	"github.com/crime-ease/platform/internal/case/domain"
)

// OccurrenceRecord is one row of a station's legacy occurrence book as
// stored in the old SQL Server register.
type OccurrenceRecord struct {
	EntryID      int64
	EntryNumber  string
	Title        string
	Description  string
	IncidentType string
	ReporterName string
	OccurredAt   time.Time
	RecordedAt   time.Time
}

// CaseStore is the slice of the case repository the importer needs
type CaseStore interface {
	Save(ctx context.Context, c *domain.Case) error
}

// Config holds the legacy register connection settings
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// StationCode identifies which station's register this is; the
	// resolved station ID is stamped on every imported case.
	StationCode string

	PollInterval    time.Duration
	OccurrenceTable string
}

// DefaultConfig returns defaults for the legacy register adapter
func DefaultConfig() Config {
	return Config{
		Port:            1433,
		PollInterval:    5 * time.Minute,
		OccurrenceTable: "dbo.OccurrenceBook",
	}
}

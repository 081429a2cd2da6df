package infrastructure

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crime-ease/platform/internal/case/domain"
	"github.com/crime-ease/platform/internal/shared/types"
)

// brokenRows yields a number of well-formed case rows and then fails the
// stream, the way a dropped connection surfaces through pgx.
type brokenRows struct {
	pgx.Rows

	rowsBeforeBreak int
	scanned         int
	streamErr       error
}

func (r *brokenRows) Next() bool {
	return r.scanned < r.rowsBeforeBreak
}

func (r *brokenRows) Err() error {
	return r.streamErr
}

func (r *brokenRows) Scan(dest ...interface{}) error {
	r.scanned++

	now := time.Now()
	*(dest[0].(*types.ID)) = types.NewID()                                // id
	*(dest[1].(*string)) = fmt.Sprintf("OB-2026-%04d", r.scanned)         // ob_number
	*(dest[2].(*string)) = "Stolen bicycle"                               // title
	*(dest[3].(*string)) = "Taken from outside the market"                // description
	*(dest[4].(*string)) = "theft"                                        // incident_type
	*(dest[5].(*time.Time)) = now                                         // incident_at
	*(dest[9].(*types.ID)) = types.NewID()                                // station_id
	*(dest[10].(*domain.CaseStatus)) = domain.CaseStatusOpen              // status
	*(dest[11].(*domain.Priority)) = domain.PriorityMedium                // priority
	*(dest[13].(*bool)) = true                                            // is_anonymous
	*(dest[16].(*time.Time)) = now                                        // created_at
	*(dest[17].(*time.Time)) = now                                        // updated_at
	return nil
}

func TestCollectCasesSurfacesStreamError(t *testing.T) {
	streamErr := fmt.Errorf("unexpected EOF")
	rows := &brokenRows{rowsBeforeBreak: 2, streamErr: streamErr}

	cases, err := collectCases(rows)
	if err == nil {
		t.Fatalf("a broken stream must not look like a complete listing, got %d cases", len(cases))
	}
	if cases != nil {
		t.Errorf("expected no partial results, got %d cases", len(cases))
	}
}

func TestCollectCases(t *testing.T) {
	rows := &brokenRows{rowsBeforeBreak: 3}

	cases, err := collectCases(rows)
	if err != nil {
		t.Fatalf("collectCases: %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(cases))
	}
	if cases[0].OBNumber != "OB-2026-0001" {
		t.Errorf("unexpected first case: %+v", cases[0])
	}
}

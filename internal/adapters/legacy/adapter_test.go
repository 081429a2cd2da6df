package legacy

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/crime-ease/platform/internal/case/domain"
	"github.com/crime-ease/platform/internal/shared/types"
)

type fakeStore struct {
	saved []*domain.Case
}

func (f *fakeStore) Save(ctx context.Context, c *domain.Case) error {
	f.saved = append(f.saved, c)
	return nil
}

func TestStopWaitsForInFlightPoll(t *testing.T) {
	a := New(DefaultConfig(), types.NewID(), &fakeStore{}, nil)

	// Stand in for a started adapter with a poll draining records. The
	// worker takes the mutex after cancellation, the way poll does when
	// it advances its cursor.
	pollCtx, cancel := context.WithCancel(context.Background())
	a.running = true
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-pollCtx.Done()
		a.mu.Lock()
		a.lastPoll = time.Now()
		a.mu.Unlock()
	}()

	ctx, cancelStop := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelStop()

	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop must not stall on a poll that needs the mutex: %v", err)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.running {
		t.Error("adapter still marked running after Stop")
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	a := New(DefaultConfig(), types.NewID(), &fakeStore{}, nil)

	if err := a.Stop(context.Background()); err != nil {
		t.Fatalf("Stop on a stopped adapter: %v", err)
	}
}

func TestImportRecord(t *testing.T) {
	store := &fakeStore{}
	stationID := types.NewID()
	a := New(DefaultConfig(), stationID, store, nil)

	rec := OccurrenceRecord{
		EntryID:      41,
		EntryNumber:  "OB/41/2026",
		Title:        "Lost national ID card",
		IncidentType: "lost_property",
		ReporterName: "J. Mwangi",
		OccurredAt:   time.Now().Add(-2 * time.Hour),
		RecordedAt:   time.Now(),
	}

	if err := a.importRecord(context.Background(), rec); err != nil {
		t.Fatalf("importRecord: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved case, got %d", len(store.saved))
	}

	c := store.saved[0]
	if !c.IsAnonymous {
		t.Error("imported desk entries must be anonymous")
	}
	if c.StationID != stationID {
		t.Errorf("expected station %s, got %s", stationID, c.StationID)
	}

	u := c.LastUpdate()
	if u == nil {
		t.Fatal("expected a provenance entry in the audit trail")
	}
	if u.Type != domain.UpdateTypeEvidenceAdded || u.Visibility != domain.VisibilityInternal {
		t.Errorf("provenance entry must be internal evidence, got %s/%s", u.Type, u.Visibility)
	}
	if !strings.Contains(u.Body, "OB/41/2026") || !strings.Contains(u.Body, "J. Mwangi") {
		t.Errorf("provenance entry missing the desk reference: %q", u.Body)
	}
}

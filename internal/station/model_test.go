package station

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseOfficerStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    OfficerStatus
		wantErr bool
	}{
		{"active", OfficerStatusActive, false},
		{"inactive", OfficerStatusInactive, false},
		{"suspended", OfficerStatusSuspended, false},
		{"on_leave", "", true},
		{"retired", "", true},
		{"Active", "", true},
		{"", "", true},
		{"deleted; DROP TABLE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOfficerStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOfficerStatus(%q) accepted an unknown status", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOfficerStatus(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseOfficerStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTeamStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    TeamStatus
		wantErr bool
	}{
		{"active", TeamStatusActive, false},
		{"disbanded", TeamStatusDisbanded, false},
		{"standby", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTeamStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTeamStatus(%q) accepted an unknown status", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTeamStatus(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTeamStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestListOfficersRejectsUnknownStatusFilter(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/?status=on_leave", nil)
	rec := httptest.NewRecorder()
	h.ListOfficers(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status filter, got %d", rec.Code)
	}
}

func TestListTeamsRejectsUnknownStatusFilter(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/?status=bogus", nil)
	rec := httptest.NewRecorder()
	h.ListTeams(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status filter, got %d", rec.Code)
	}
}

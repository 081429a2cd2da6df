package user

import (
	"net/url"
	"testing"
)

func TestListFilterFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  ListUsersFilter
	}{
		{"empty", "", ListUsersFilter{}},
		{"role and search", "role=officer&search=kamau", ListUsersFilter{Role: "officer", Search: "kamau"}},
		{"paging", "limit=10&offset=20", ListUsersFilter{Limit: 10, Offset: 20}},
		{"paging with filters", "role=citizen&limit=5&offset=5", ListUsersFilter{Role: "citizen", Limit: 5, Offset: 5}},
		{"non-numeric paging ignored", "limit=abc&offset=-", ListUsersFilter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			if got := listFilterFromQuery(q); got != tt.want {
				t.Errorf("listFilterFromQuery(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

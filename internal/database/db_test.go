package database

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero uses default", limit: 0, want: 50},
		{name: "negative uses default", limit: -3, want: 50},
		{name: "within range", limit: 20, want: 20},
		{name: "capped", limit: 5000, want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLimit(tt.limit); got != tt.want {
				t.Errorf("clampLimit(%d) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}

func TestIgnoreNoRows(t *testing.T) {
	if err := ignoreNoRows(sql.ErrNoRows); err != nil {
		t.Errorf("ignoreNoRows(ErrNoRows) = %v, want nil", err)
	}
	boom := errors.New("boom")
	if err := ignoreNoRows(boom); err != boom {
		t.Errorf("ignoreNoRows() = %v, want %v", err, boom)
	}
}

func TestSchema(t *testing.T) {
	for _, table := range []string{"profile_snapshots", "curve_events"} {
		found := false
		for _, stmt := range schema {
			if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+table) {
				found = true
			}
			if strings.Count(stmt, ";") > 0 {
				t.Errorf("schema statement must not contain ';': %s", stmt)
			}
		}
		if !found {
			t.Errorf("schema missing table %s", table)
		}
	}
}

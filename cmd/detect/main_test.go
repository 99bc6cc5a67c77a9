package main

import (
	"os"
	"path/filepath"
	"testing"

	"terracurve/internal/codec"
	"terracurve/internal/detector"
	"terracurve/internal/models"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestRunDetection(t *testing.T) {
	dir := t.TempDir()

	flat, _ := codec.Encode(models.NewMatrix(models.DaysPerYear, models.FlatCurve(22)))
	spiky := models.NewMatrix(models.DaysPerYear, models.FlatCurve(22))
	for d := range spiky {
		if d%2 == 1 {
			spiky[d] = models.FlatCurve(22.4)
		}
	}
	spiky[180] = models.FlatCurve(35)
	spikyBlob, _ := codec.Encode(spiky)

	paths := []string{
		writeFile(t, dir, "flat.bin", flat),
		writeFile(t, dir, "broken.bin", []byte{1, 2, 3}),
		writeFile(t, dir, "spiky.bin", spikyBlob),
	}

	ad := detector.NewAnomalyDetector(zap.NewNop())
	results := runDetection(paths, 2, ad, detector.NewSmoothingSuggester())
	if len(results) != 3 {
		t.Fatalf("runDetection() returned %d results, want 3", len(results))
	}

	if results[0].Profile != "flat" || results[0].Error != nil || len(results[0].Anomalies) != 0 {
		t.Errorf("flat result = %+v", results[0])
	}
	if results[1].Profile != "broken" || results[1].Error == nil {
		t.Errorf("broken file should fail, got %+v", results[1])
	}
	if results[2].Error != nil {
		t.Fatalf("spiky result error = %v", results[2].Error)
	}
	found := false
	for _, a := range results[2].Anomalies {
		if a.Day == 180 {
			found = true
		}
	}
	if !found {
		t.Errorf("day 180 not reported: %+v", results[2].Anomalies)
	}
}

func TestRunDetection_MissingFile(t *testing.T) {
	ad := detector.NewAnomalyDetector(zap.NewNop())
	results := runDetection([]string{"/nonexistent/gecko.bin"}, 0, ad, detector.NewSmoothingSuggester())
	if len(results) != 1 || results[0].Error == nil {
		t.Errorf("missing file should fail, got %+v", results)
	}
}

func TestProfileName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"gecko.bin", "gecko"},
		{"/tmp/profiles/leopard gecko.bin", "leopard gecko"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := profileName(tt.path); got != tt.want {
			t.Errorf("profileName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

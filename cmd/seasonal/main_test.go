package main

import (
	"testing"

	"terracurve/internal/config"
)

func TestWithDefaults(t *testing.T) {
	weather := config.WeatherConfig{Latitude: 43.6, Longitude: 1.44, StartYear: 2018, EndYear: 2022}

	got := withDefaults(options{name: "gecko"}, weather)
	if got.lat != 43.6 || got.long != 1.44 {
		t.Errorf("location = %v,%v, want 43.6,1.44", got.lat, got.long)
	}
	if got.from != 2018 || got.to != 2022 {
		t.Errorf("years = %d..%d, want 2018..2022", got.from, got.to)
	}

	got = withDefaults(options{name: "gecko", lat: -33.9, long: 18.4, from: 2010, to: 2011}, weather)
	if got.lat != -33.9 || got.from != 2010 || got.to != 2011 {
		t.Errorf("explicit flags were overridden: %+v", got)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr bool
	}{
		{"valid", options{name: "gecko", lat: 43.6, long: 1.44, from: 2018, to: 2020}, false},
		{"missing name", options{lat: 43.6, long: 1.44, from: 2018, to: 2020}, true},
		{"bad name", options{name: "gecko/../x", lat: 43.6, from: 2018, to: 2020}, true},
		{"latitude", options{name: "gecko", lat: 91, from: 2018, to: 2020}, true},
		{"inverted years", options{name: "gecko", from: 2021, to: 2020}, true},
		{"incomplete year", options{name: "gecko", from: 2018, to: 3000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	if got := outputPath("out", "gecko"); got != "out/gecko.bin" {
		t.Errorf("outputPath() = %q, want %q", got, "out/gecko.bin")
	}
}

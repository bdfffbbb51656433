package filter

import (
	"testing"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/config"
)

var records = []anomaly.Record{
	{Series: "Echo Rift", City: "Lisbon", Country: "Portugal", Timezone: "Europe/Lisbon", Winner: "Resistance"},
	{Series: "Echo Rift", City: "Osaka", Country: "Japan", Timezone: "Asia/Tokyo"},
	{Series: "Plus Theta", City: "Denver", Country: "USA", Timezone: "America/Denver", Winner: "Enlightened"},
}

func cities(rs []anomaly.Record) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.City)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.FilterConfig
		want []string
	}{
		{
			name: "no rules passes everything",
			cfg:  config.FilterConfig{},
			want: []string{"Lisbon", "Osaka", "Denver"},
		},
		{
			name: "exact series",
			cfg:  config.FilterConfig{Rules: []config.FilterRule{{Field: "series", Exact: "Echo Rift"}}},
			want: []string{"Lisbon", "Osaka"},
		},
		{
			name: "case insensitive contains",
			cfg:  config.FilterConfig{Rules: []config.FilterRule{{Field: "country", Contains: "PORT", CaseInsensitive: true}}},
			want: []string{"Lisbon"},
		},
		{
			name: "prefix on timezone",
			cfg:  config.FilterConfig{Rules: []config.FilterRule{{Field: "timezone", Prefix: "America/"}}},
			want: []string{"Denver"},
		},
		{
			name: "suffix on location",
			cfg:  config.FilterConfig{Rules: []config.FilterRule{{Field: "location", Suffix: ", Japan"}}},
			want: []string{"Osaka"},
		},
		{
			name: "regex on winner",
			cfg:  config.FilterConfig{Rules: []config.FilterRule{{Field: "winner", Regex: "^res", CaseInsensitive: true}}},
			want: []string{"Lisbon"},
		},
		{
			name: "or mode",
			cfg: config.FilterConfig{Mode: "or", Rules: []config.FilterRule{
				{Field: "city", Exact: "Osaka"},
				{Field: "city", Exact: "Denver"},
			}},
			want: []string{"Osaka", "Denver"},
		},
		{
			name: "and mode",
			cfg: config.FilterConfig{Mode: "and", Rules: []config.FilterRule{
				{Field: "series", Exact: "Echo Rift"},
				{Field: "winner", Exact: "Resistance"},
			}},
			want: []string{"Lisbon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New error: %v", err)
			}
			got := cities(f.Apply(records))
			if len(got) != len(tt.want) {
				t.Fatalf("Apply = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Apply = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		rule config.FilterRule
	}{
		{"unknown field", config.FilterRule{Field: "title", Contains: "x"}},
		{"no pattern", config.FilterRule{Field: "city"}},
		{"bad regex", config.FilterRule{Field: "city", Regex: "("}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(config.FilterConfig{Rules: []config.FilterRule{tt.rule}}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

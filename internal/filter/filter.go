// Package filter provides include filtering for anomaly records.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/config"
)

// MatchType specifies how a filter rule matches.
type MatchType int

const (
	MatchContains MatchType = iota // Substring match (default)
	MatchExact                     // Exact string match
	MatchPrefix                    // Starts with
	MatchSuffix                    // Ends with
	MatchRegex                     // Regular expression
)

// Filter applies include rules to records.
type Filter struct {
	mode  string // "or" or "and"
	rules []rule
}

type rule struct {
	field           string
	matchType       MatchType
	pattern         string         // For non-regex matches
	regex           *regexp.Regexp // For regex matches
	caseInsensitive bool
}

// New creates a new filter from configuration.
func New(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{
		mode: cfg.Mode,
	}

	if f.mode == "" {
		f.mode = "or"
	}

	for i, r := range cfg.Rules {
		compiled, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		f.rules = append(f.rules, compiled)
	}

	return f, nil
}

// compileRule converts a config FilterRule to an internal rule.
func compileRule(r config.FilterRule) (rule, error) {
	if !knownField(r.Field) {
		return rule{}, fmt.Errorf("unknown field %q", r.Field)
	}
	compiled := rule{
		field:           r.Field,
		caseInsensitive: r.CaseInsensitive,
	}

	// Determine match type and pattern
	switch {
	case r.Regex != "":
		compiled.matchType = MatchRegex
		pattern := r.Regex
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return compiled, fmt.Errorf("invalid regex %q: %w", r.Regex, err)
		}
		compiled.regex = re

	case r.Exact != "":
		compiled.matchType = MatchExact
		compiled.pattern = r.Exact
		if r.CaseInsensitive {
			compiled.pattern = strings.ToLower(compiled.pattern)
		}

	case r.Prefix != "":
		compiled.matchType = MatchPrefix
		compiled.pattern = r.Prefix
		if r.CaseInsensitive {
			compiled.pattern = strings.ToLower(compiled.pattern)
		}

	case r.Suffix != "":
		compiled.matchType = MatchSuffix
		compiled.pattern = r.Suffix
		if r.CaseInsensitive {
			compiled.pattern = strings.ToLower(compiled.pattern)
		}

	case r.Contains != "":
		compiled.matchType = MatchContains
		compiled.pattern = r.Contains
		if r.CaseInsensitive {
			compiled.pattern = strings.ToLower(compiled.pattern)
		}

	default:
		return compiled, fmt.Errorf("no match pattern specified (use contains, exact, prefix, suffix, or regex)")
	}

	return compiled, nil
}

// Apply filters records, returning only those that match the include rules.
// If no rules are defined, all records are returned.
func (f *Filter) Apply(records []anomaly.Record) []anomaly.Record {
	// No rules = pass everything through
	if len(f.rules) == 0 {
		return records
	}

	var filtered []anomaly.Record
	for _, r := range records {
		if f.matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// matches checks if a record matches the filter rules.
func (f *Filter) matches(rec anomaly.Record) bool {
	if f.mode == "and" {
		// All rules must match
		for _, r := range f.rules {
			if !r.matches(rec) {
				return false
			}
		}
		return true
	}

	// OR mode: any rule must match
	for _, r := range f.rules {
		if r.matches(rec) {
			return true
		}
	}
	return false
}

// matches checks if a record matches a single rule.
func (r *rule) matches(rec anomaly.Record) bool {
	value := fieldValue(r.field, rec)

	// Apply case insensitivity for non-regex matches
	if r.caseInsensitive && r.matchType != MatchRegex {
		value = strings.ToLower(value)
	}

	switch r.matchType {
	case MatchRegex:
		return r.regex.MatchString(value)
	case MatchExact:
		return value == r.pattern
	case MatchPrefix:
		return strings.HasPrefix(value, r.pattern)
	case MatchSuffix:
		return strings.HasSuffix(value, r.pattern)
	case MatchContains:
		fallthrough
	default:
		return strings.Contains(value, r.pattern)
	}
}

var fields = []string{"series", "city", "country", "timezone", "winner", "location"}

func knownField(name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// fieldValue extracts the field value from a record.
func fieldValue(field string, rec anomaly.Record) string {
	switch field {
	case "series":
		return rec.Series
	case "city":
		return rec.City
	case "country":
		return rec.Country
	case "timezone":
		return rec.Timezone
	case "winner":
		return rec.Winner
	case "location":
		return rec.City + ", " + rec.Country
	default:
		return ""
	}
}

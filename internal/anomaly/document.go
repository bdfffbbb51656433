package anomaly

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// site is the wire form of a single anomaly site.
type site struct {
	Series         string   `json:"series"`
	City           string   `json:"city"`
	Country        string   `json:"country"`
	Date           string   `json:"date"`
	Timezone       string   `json:"timezone"`
	URL            string   `json:"url"`
	IRL            string   `json:"irl"` // legacy name for url
	ResistanceURL  string   `json:"url-res"`
	EnlightenedURL string   `json:"url-enl"`
	Winner         string   `json:"winner"`
	Logos          []string `json:"series-logos"`
}

// group is the wire form of a series with its sites.
type group struct {
	Series string            `json:"series"`
	Sites  []json.RawMessage `json:"sites"`
}

// Decode parses an anomaly document. Two shapes are accepted: a flat list of
// sites, or a list of series groups each holding a "sites" list. Groups are
// flattened and their series name copied onto every site.
func Decode(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, &SchemaError{Reason: "document is not a list"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &SchemaError{Reason: "document is not a list", Err: err}
	}

	var records []Record
	for i, item := range items {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(item, &probe); err != nil || probe == nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("item %d is not an object", i)}
		}

		if _, grouped := probe["sites"]; !grouped {
			r, err := decodeSite(item, "")
			if err != nil {
				return nil, &SchemaError{Reason: fmt.Sprintf("item %d", i), Err: err}
			}
			records = append(records, r)
			continue
		}

		if !isList(probe["sites"]) {
			return nil, &SchemaError{Reason: fmt.Sprintf("series group %d has no sites list", i)}
		}
		var g group
		if err := json.Unmarshal(item, &g); err != nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("series group %d", i), Err: err}
		}
		for j, raw := range g.Sites {
			r, err := decodeSite(raw, g.Series)
			if err != nil {
				return nil, &SchemaError{Reason: fmt.Sprintf("series group %d site %d", i, j), Err: err}
			}
			records = append(records, r)
		}
	}

	return records, nil
}

// decodeSite decodes one site object. A non-empty series overrides any
// series the site names itself.
func decodeSite(raw json.RawMessage, series string) (Record, error) {
	if !isObject(raw) {
		return Record{}, fmt.Errorf("site is not an object")
	}
	var s site
	if err := json.Unmarshal(raw, &s); err != nil {
		return Record{}, err
	}

	r := Record{
		Series:         s.Series,
		City:           s.City,
		Country:        s.Country,
		Date:           s.Date,
		Timezone:       s.Timezone,
		URL:            s.URL,
		ResistanceURL:  s.ResistanceURL,
		EnlightenedURL: s.EnlightenedURL,
		Winner:         s.Winner,
		Logos:          s.Logos,
	}
	if series != "" {
		r.Series = series
	}
	if r.URL == "" {
		r.URL = s.IRL
	}
	return r, nil
}

func isList(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

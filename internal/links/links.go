// Package links validates and labels the URLs and logo identifiers attached
// to anomalies.
package links

import (
	"net/url"
	"os/exec"
	"regexp"
	"strings"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
)

// Known community hosts, checked in order.
var services = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"FevGames", regexp.MustCompile(`^https?://([\w-]+\.)*fevgames\.net/`)},
	{"Ingress", regexp.MustCompile(`^https?://([\w-]+\.)*ingress\.com/`)},
	{"Telegram", regexp.MustCompile(`^https?://(t\.me|telegram\.me)/`)},
	{"Discord", regexp.MustCompile(`^https?://(discord\.gg|([\w-]+\.)*discord\.com)/`)},
	{"Facebook", regexp.MustCompile(`^https?://([\w-]+\.)*(facebook\.com|fb\.me)/`)},
}

var logoPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Link is a labelled URL.
type Link struct {
	Label string
	URL   string
}

// Sanitize returns raw if it is an absolute http or https URL with a host,
// normalized; otherwise it returns "".
func Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" || u.User != nil {
		return ""
	}
	return u.String()
}

// ValidLogo reports whether id is a safe logo identifier.
func ValidLogo(id string) bool {
	return logoPattern.MatchString(id)
}

// FilterLogos returns the valid logo identifiers, in order.
func FilterLogos(ids []string) []string {
	var out []string
	for _, id := range ids {
		if ValidLogo(id) {
			out = append(out, id)
		}
	}
	return out
}

// Service returns the name of the community site hosting url.
func Service(url string) string {
	for _, s := range services {
		if s.pattern.MatchString(url) {
			return s.name
		}
	}
	return "Link"
}

// ForEvent returns the sanitized links of an event: its page, then the
// faction pages. Invalid URLs are skipped.
func ForEvent(e *anomaly.Event) []Link {
	var out []Link
	if u := Sanitize(e.URL); u != "" {
		out = append(out, Link{Label: "Event page (" + Service(u) + ")", URL: u})
	}
	if u := Sanitize(e.ResistanceURL); u != "" {
		out = append(out, Link{Label: "Resistance (" + Service(u) + ")", URL: u})
	}
	if u := Sanitize(e.EnlightenedURL); u != "" {
		out = append(out, Link{Label: "Enlightened (" + Service(u) + ")", URL: u})
	}
	return out
}

// Open opens a URL in the default browser using xdg-open.
func Open(url string) error {
	return exec.Command("xdg-open", url).Start()
}

package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joblens/jobcorpus/internal/corpus"
)

// JSONLD extracts JobPosting nodes from schema.org JSON-LD script blobs.
// Career pages embed these in several shapes: a single object, a top-level
// array, or an @graph wrapper, with @type either a string or an array.
type JSONLD struct{}

func (x *JSONLD) Extract(content corpus.RawContent) ([]corpus.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content.Body))
	if err != nil {
		return nil, &corpus.ExtractionError{Capability: "jsonld", Err: err}
	}

	var out []corpus.Candidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var node any
		if err := json.Unmarshal([]byte(s.Text()), &node); err != nil {
			// one broken blob must not hide the others
			return
		}
		walkLD(node, &out)
	})
	return out, nil
}

func walkLD(node any, out *[]corpus.Candidate) {
	switch n := node.(type) {
	case []any:
		for _, item := range n {
			walkLD(item, out)
		}
	case map[string]any:
		if isJobPosting(n) {
			*out = append(*out, candidateFromLD(n))
		}
		if graph, ok := n["@graph"]; ok {
			walkLD(graph, out)
		}
	}
}

func isJobPosting(n map[string]any) bool {
	switch t := n["@type"].(type) {
	case string:
		return strings.EqualFold(t, "JobPosting")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "JobPosting") {
				return true
			}
		}
	}
	return false
}

func candidateFromLD(n map[string]any) corpus.Candidate {
	return corpus.Candidate{
		Title:        ldString(n["title"]),
		URL:          ldString(n["url"]),
		DatePosted:   ldString(n["datePosted"]),
		Description:  ldString(n["description"]),
		LocationText: ldLocation(n["jobLocation"]),
	}
}

// ldLocation flattens jobLocation (a Place or a list of Places) into
// "locality, region, country" joined across the present parts.
func ldLocation(v any) string {
	var parts []string
	collect := func(place map[string]any) {
		addr, _ := place["address"].(map[string]any)
		if addr == nil {
			return
		}
		for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
			if s := ldString(addr[key]); s != "" {
				parts = append(parts, s)
			}
		}
	}
	switch loc := v.(type) {
	case map[string]any:
		collect(loc)
	case []any:
		for _, item := range loc {
			if place, ok := item.(map[string]any); ok {
				collect(place)
			}
		}
	}
	return strings.Join(parts, ", ")
}

func ldString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

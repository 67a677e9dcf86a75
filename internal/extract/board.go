package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joblens/jobcorpus/internal/corpus"
)

// Board scrapes generic career-board listings: anchors whose href looks
// like a posting detail page, with the anchor text as the title. Hosted
// boards (Greenhouse, Lever and the like) all fit this shape.
type Board struct{}

// jobPathHints mark an href as a posting link.
var jobPathHints = []string{"/jobs/", "/job/", "/careers/", "/positions/", "/openings/"}

func (x *Board) Extract(content corpus.RawContent) ([]corpus.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content.Body))
	if err != nil {
		return nil, &corpus.ExtractionError{Capability: "board", Err: err}
	}

	var out []corpus.Candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || !looksLikePostingLink(href) {
			return
		}
		title := strings.Join(strings.Fields(a.Text()), " ")
		if title == "" || looksLikeNavTitle(title) {
			return
		}
		out = append(out, corpus.Candidate{
			Title:        title,
			URL:          href,
			LocationText: nearbyLocation(a),
		})
	})
	return out, nil
}

func looksLikePostingLink(href string) bool {
	low := strings.ToLower(href)
	if strings.HasPrefix(low, "javascript:") || strings.HasPrefix(low, "mailto:") || strings.HasPrefix(low, "#") {
		return false
	}
	for _, hint := range jobPathHints {
		if strings.Contains(low, hint) {
			return true
		}
	}
	return false
}

// looksLikeNavTitle filters chrome links that happen to share the job
// path, e.g. "View all jobs" or "Apply".
func looksLikeNavTitle(title string) bool {
	low := strings.ToLower(title)
	switch low {
	case "apply", "apply now", "learn more", "view job", "see all jobs", "view all jobs", "careers", "jobs":
		return true
	}
	return false
}

// nearbyLocation pulls a location out of the sibling or parent text when
// the board marks it with a conventional class.
func nearbyLocation(a *goquery.Selection) string {
	for _, sel := range []string{".location", ".job-location", "[data-location]"} {
		if loc := a.Parent().Find(sel).First(); loc.Length() > 0 {
			return strings.Join(strings.Fields(loc.Text()), " ")
		}
	}
	return ""
}

package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/joblens/jobcorpus/internal/corpus"
)

// CleanText folds non-breaking spaces and collapses runs of whitespace.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// DeriveKey returns the identity key for a candidate: the canonical URL
// when one survived validation, otherwise a content hash of title and
// location. ok is false when neither is usable and the candidate must be
// discarded.
func DeriveKey(canonicalURL, title, locationText string) (key string, ok bool) {
	if canonicalURL != "" {
		return canonicalURL, true
	}
	if strings.TrimSpace(title) == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(strings.ToLower(CleanText(title)) + "\x00" + strings.ToLower(CleanText(locationText))))
	return hex.EncodeToString(sum[:]), true
}

// Candidate canonicalizes one extractor candidate. ok is false when the
// candidate has neither a usable URL nor a usable title.
func Candidate(c corpus.Candidate, src corpus.SourceConfig) (corpus.NormalizedPosting, bool) {
	base := src.BaseURL
	if base == "" {
		base = src.URL
	}
	canonical := CanonicalURL(c.URL, base)
	key, ok := DeriveKey(canonical, c.Title, c.LocationText)
	if !ok {
		return corpus.NormalizedPosting{}, false
	}
	return corpus.NormalizedPosting{
		IdentityKey:     key,
		Title:           CleanText(c.Title),
		LocationText:    CleanText(c.LocationText),
		DatePostedRaw:   strings.TrimSpace(c.DatePosted),
		DescriptionText: SanitizeHTML(c.Description),
		SourceURL:       c.URL,
		CanonicalURL:    canonical,
	}, true
}

// Candidates normalizes a fetch's candidate list into a key-indexed map.
// When the same key occurs twice the later candidate's fields win.
// discarded counts candidates dropped for lacking any identity.
func Candidates(list []corpus.Candidate, src corpus.SourceConfig) (byKey map[string]corpus.NormalizedPosting, discarded int) {
	byKey = make(map[string]corpus.NormalizedPosting, len(list))
	for _, c := range list {
		np, ok := Candidate(c, src)
		if !ok {
			discarded++
			continue
		}
		byKey[np.IdentityKey] = np
	}
	return byKey, discarded
}

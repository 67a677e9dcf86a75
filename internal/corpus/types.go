// Package corpus holds the domain model shared across the ingestion
// pipeline, the store, and the API.
package corpus

import "time"

// SourceConfig describes where a company's postings live and which
// extractor capability understands the page.
type SourceConfig struct {
	URL       string `mapstructure:"url" json:"url"`
	BaseURL   string `mapstructure:"base_url" json:"baseUrl,omitempty"`
	Extractor string `mapstructure:"extractor" json:"extractor"`
}

// Company is a tracked employer with exactly one source.
type Company struct {
	ID     string       `json:"id"`
	Ticker string       `json:"ticker,omitempty"`
	Name   string       `json:"name"`
	Source SourceConfig `json:"source"`
}

// RawContent is the payload of one successful fetch.
type RawContent struct {
	Body       []byte
	FinalURL   string
	StatusCode int
	FetchedAt  time.Time
}

// Candidate is a posting as an extractor saw it, before any cleanup.
// Fields are verbatim page content; URL may be relative.
type Candidate struct {
	Title        string
	LocationText string
	DatePosted   string
	Description  string
	URL          string
}

// NormalizedPosting is a candidate after canonicalization, keyed and
// ready to diff against stored state.
type NormalizedPosting struct {
	IdentityKey     string
	Title           string
	LocationText    string
	DatePostedRaw   string
	DescriptionText string
	SourceURL       string
	CanonicalURL    string
}

// JobPosting is the stored record of a posting's lifecycle.
type JobPosting struct {
	ID              string     `json:"id"`
	CompanyID       string     `json:"companyId"`
	IdentityKey     string     `json:"identityKey"`
	Title           string     `json:"title"`
	LocationText    string     `json:"locationText,omitempty"`
	DatePostedRaw   string     `json:"datePostedRaw,omitempty"`
	DescriptionText string     `json:"descriptionText,omitempty"`
	SourceURL       string     `json:"sourceUrl,omitempty"`
	CanonicalURL    string     `json:"canonicalUrl,omitempty"`
	IsActive        bool       `json:"isActive"`
	FirstSeenAt     time.Time  `json:"firstSeenAt"`
	LastSeenAt      time.Time  `json:"lastSeenAt"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
}

// DisplayURL prefers the canonical URL and falls back to the raw one.
func (p JobPosting) DisplayURL() string {
	if p.CanonicalURL != "" {
		return p.CanonicalURL
	}
	return p.SourceURL
}

// SearchText is the field text queries are evaluated against.
func (p JobPosting) SearchText() string {
	return p.Title + "\n" + p.DescriptionText
}

// Diff partitions identity keys for one company-cycle. The three sets
// are mutually exclusive.
type Diff struct {
	ToCreate []string
	ToRenew  []string
	ToClose  []string
}

// CycleResult summarizes one applied company-cycle. Reopened counts the
// subset of creates that revived a previously closed key.
type CycleResult struct {
	CompanyID string `json:"companyId"`
	Created   int    `json:"created"`
	Renewed   int    `json:"renewed"`
	Reopened  int    `json:"reopened"`
	Closed    int    `json:"closed"`
	Discarded int    `json:"discarded"`
}

// SearchParams are the plain filters applied by the store; the query
// expression itself is evaluated by the caller.
type SearchParams struct {
	CompanyID string
	Active    *bool
	Since     *time.Time
	Limit     int
}

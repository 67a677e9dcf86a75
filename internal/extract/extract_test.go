package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joblens/jobcorpus/internal/corpus"
)

func TestRegistryUnknownCapability(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Lookup("screenshot")
	var xerr *corpus.ExtractionError
	require.ErrorAs(t, err, &xerr)
	require.Equal(t, "screenshot", xerr.Capability)

	require.Equal(t, []string{"board", "jsonld"}, r.Capabilities())
}

func TestJSONLDSingleObject(t *testing.T) {
	t.Parallel()

	body := `<html><head><script type="application/ld+json">
	{
	  "@context": "https://schema.org",
	  "@type": "JobPosting",
	  "title": "Backend Engineer",
	  "url": "https://acme.example/jobs/42",
	  "datePosted": "2026-08-12",
	  "description": "<p>Build services.</p>",
	  "jobLocation": {
	    "@type": "Place",
	    "address": {"addressLocality": "Berlin", "addressCountry": "DE"}
	  }
	}
	</script></head><body></body></html>`

	cands, err := (&JSONLD{}).Extract(corpus.RawContent{Body: []byte(body)})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "Backend Engineer", cands[0].Title)
	require.Equal(t, "https://acme.example/jobs/42", cands[0].URL)
	require.Equal(t, "2026-08-12", cands[0].DatePosted)
	require.Equal(t, "Berlin, DE", cands[0].LocationText)
}

func TestJSONLDGraphAndArrays(t *testing.T) {
	t.Parallel()

	body := `<html><body>
	<script type="application/ld+json">
	{"@graph": [
	  {"@type": "Organization", "name": "Acme"},
	  {"@type": ["Thing", "JobPosting"], "title": "SRE", "url": "/jobs/7"}
	]}
	</script>
	<script type="application/ld+json">
	[{"@type": "JobPosting", "title": "Data Engineer"}]
	</script>
	<script type="application/ld+json">not json at all</script>
	</body></html>`

	cands, err := (&JSONLD{}).Extract(corpus.RawContent{Body: []byte(body)})
	require.NoError(t, err)
	require.Len(t, cands, 2)
	require.Equal(t, "SRE", cands[0].Title)
	require.Equal(t, "Data Engineer", cands[1].Title)
}

func TestJSONLDEmptyPage(t *testing.T) {
	t.Parallel()

	cands, err := (&JSONLD{}).Extract(corpus.RawContent{Body: []byte("<html><body>no openings</body></html>")})
	require.NoError(t, err)
	require.Empty(t, cands)
}

func TestBoardAnchors(t *testing.T) {
	t.Parallel()

	body := `<html><body>
	<nav><a href="/careers/">Careers</a></nav>
	<ul>
	  <li><a href="/jobs/101">Backend Engineer</a><span class="location">NYC</span></li>
	  <li><a href="https://boards.example/acme/jobs/102">Platform Engineer</a></li>
	  <li><a href="/jobs/101">Apply</a></li>
	  <li><a href="mailto:hr@acme.example">Contact</a></li>
	  <li><a href="/about">About us</a></li>
	</ul>
	</body></html>`

	cands, err := (&Board{}).Extract(corpus.RawContent{Body: []byte(body)})
	require.NoError(t, err)
	require.Len(t, cands, 2)
	require.Equal(t, "Backend Engineer", cands[0].Title)
	require.Equal(t, "/jobs/101", cands[0].URL)
	require.Equal(t, "NYC", cands[0].LocationText)
	require.Equal(t, "Platform Engineer", cands[1].Title)
}

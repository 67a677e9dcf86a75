package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Expr {
	t.Helper()
	expr, err := Parse(s)
	require.NoError(t, err)
	return expr
}

func TestParseAdjacencyAndORBothWiden(t *testing.T) {
	t.Parallel()

	adj := mustParse(t, "backend frontend")
	kw := mustParse(t, "backend OR frontend")
	for _, expr := range []Expr{adj, kw} {
		require.True(t, expr.Match("Senior Backend Engineer"))
		require.True(t, expr.Match("Frontend Developer"))
		require.False(t, expr.Match("Data Scientist"))
	}
}

func TestPhraseMatchesAsSubstring(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, `"data engineer"`)
	require.True(t, expr.Match("Staff Data Engineer, Platform"))
	require.False(t, expr.Match("Data Platform Engineer"), "phrase is literal, not tokenized")
}

func TestNegationExcludesRegardlessOfPositives(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, `("data engineer" OR backend) -recruiter`)
	require.True(t, expr.Match("Backend Engineer"))
	require.True(t, expr.Match("Lead Data Engineer"))
	require.False(t, expr.Match("Backend Engineer\ninternal recruiter note"))
	require.False(t, expr.Match("Recruiter"))
}

func TestNegationOnlyQueryMatchesEverythingElse(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "-intern")
	require.True(t, expr.Match("Senior Engineer"))
	require.False(t, expr.Match("Engineering Intern"))
}

func TestNegatedGroup(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, `engineer -(intern OR "working student")`)
	require.True(t, expr.Match("Platform Engineer"))
	require.False(t, expr.Match("Engineer Intern"))
	require.False(t, expr.Match("Engineer (Working Student)"))
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "BACKEND")
	require.True(t, expr.Match("backend engineer"))
}

func TestSubstringDoesNotCrossLiteralForms(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "frontend")
	require.False(t, expr.Match("Front-End Developer"))
	both := mustParse(t, "frontend OR front-end")
	require.True(t, both.Match("Front-End Developer"))
}

func TestEmptyQueryMatchesAll(t *testing.T) {
	t.Parallel()

	expr := mustParse(t, "")
	require.True(t, expr.Match("anything at all"))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in  string
		pos int
	}{
		{`("(unclosed`, 1},
		{`(backend`, 8},
		{`backend)`, 7},
		{`()`, 1},
		{`backend -`, 9},
		{`"unterminated`, 0},
	}
	for _, tc := range cases {
		_, err := Parse(tc.in)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, "input: %s", tc.in)
		require.Equal(t, tc.pos, perr.Pos, "input: %s", tc.in)
	}
}

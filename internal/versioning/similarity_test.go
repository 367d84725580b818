package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleRatio(t *testing.T) {
	assert.Equal(t, 1.0, TitleRatio("Paper A", "Paper A"))
	assert.Equal(t, 1.0, TitleRatio("", ""))
	assert.Equal(t, 0.0, TitleRatio("abc", "xyz"))

	// Known value: "abcd" vs "bcde" share "bcd", 2*3/8.
	assert.InDelta(t, 0.75, TitleRatio("abcd", "bcde"), 1e-9)
}

func TestTitleRatio_Normalization(t *testing.T) {
	assert.Equal(t, 1.0, TitleRatio("Paper A", "paper a"))
	assert.Equal(t, 1.0, TitleRatio("  Paper   A ", "Paper A"))
}

func TestTitleRatio_VersionedTitles(t *testing.T) {
	sim := TitleRatio("Paper A v1", "Paper A v2")
	assert.Greater(t, sim, 0.85, "near-identical versioned titles clear the threshold")
	assert.Less(t, sim, 1.0)
}

func TestTitleRatio_DistinctPapers(t *testing.T) {
	sim := TitleRatio("Quantum Error Correction", "A Survey of Graph Databases")
	assert.Less(t, sim, 0.5)
}

func TestTitleRatio_Asymmetry(t *testing.T) {
	// Ratio is symmetric in total length, order of arguments is irrelevant.
	a := TitleRatio("Scaling Laws", "Scaling Laws for Neural Language Models")
	b := TitleRatio("Scaling Laws for Neural Language Models", "Scaling Laws")
	assert.InDelta(t, a, b, 1e-9)
}

func TestSessionBase(t *testing.T) {
	base, ok := sessionBase("/notes/standup_session_2024-03-01.md")
	assert.True(t, ok)
	assert.Equal(t, "standup", base)

	base, ok = sessionBase("/notes/Session-2024-03-01-retro.md")
	assert.True(t, ok)
	assert.Equal(t, "retro", base)

	_, ok = sessionBase("/papers/attention.md")
	assert.False(t, ok)
}

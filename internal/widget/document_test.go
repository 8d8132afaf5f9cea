package widget

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiveterm/internal/artifact"
)

func reportDoc() *artifact.Artifact {
	return &artifact.Artifact{
		ID:    "report-1",
		Kind:  artifact.KindDocument,
		Props: &artifact.DocumentProps{Content: "# Rollout Report\n\nAll pods healthy."},
	}
}

func TestDocumentIsPassive(t *testing.T) {
	w := NewDocument(reportDoc())

	assert.True(t, w.Done(), "documents need no interaction")
	assert.False(t, w.Interactive())
	assert.Nil(t, w.Result())

	// input never changes a document
	after, cmd := w.Update(key(tea.KeyEnter))
	assert.Same(t, w, after)
	assert.Nil(t, cmd)
}

func TestDocumentRendersBody(t *testing.T) {
	w := NewDocument(reportDoc())
	view := w.View(80)
	assert.Contains(t, view, "Rollout Report")
	assert.Contains(t, view, "All pods healthy")

	// narrow widths still produce output
	assert.NotEmpty(t, w.View(10))
}

func TestRenderMarkdownFallsBackOnTinyWidth(t *testing.T) {
	out := renderMarkdown("plain body", 0)
	assert.Contains(t, out, "plain body")
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(ModeInteractive)

	w, err := r.For(deployForm())
	require.NoError(t, err)
	assert.True(t, w.Interactive())

	w, err = r.For(reportDoc())
	require.NoError(t, err)
	assert.False(t, w.Interactive())
}

func TestRegistryHeadlessFallsBack(t *testing.T) {
	r := NewRegistry(ModeHeadless)
	_, err := r.For(reportDoc())
	assert.ErrorIs(t, err, ErrNoRenderer)

	out := FallbackView(reportDoc())
	assert.Contains(t, out, "report-1")
	assert.Contains(t, out, "document")
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry(ModeInteractive)
	_, err := r.For(&artifact.Artifact{ID: "x", Kind: artifact.Kind("chart")})
	assert.ErrorIs(t, err, ErrNoRenderer)
}

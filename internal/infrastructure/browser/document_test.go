package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDocument(t *testing.T) {
	t.Run("Show and hide modal", func(t *testing.T) {
		doc := NewMemoryDocument("Importação", "pt-BR")
		doc.Append(NewElement("div", "clientesPreviewModal", "modal"))

		require.NoError(t, doc.ShowModal("clientesPreviewModal"))
		assert.Equal(t, "clientesPreviewModal", doc.ActiveModal())
		assert.True(t, doc.HasClass("show"))

		require.NoError(t, doc.HideModal("clientesPreviewModal"))
		assert.Equal(t, "", doc.ActiveModal())
		assert.Equal(t, 0, doc.Len())
		assert.Equal(t, 0, doc.Count("clientesPreviewModal"))
		assert.Nil(t, doc.GetElementByID("clientesPreviewModal"))
		assert.ErrorIs(t, doc.ShowModal("clientesPreviewModal"), ErrElementNotFound)
	})

	t.Run("Unknown id", func(t *testing.T) {
		doc := NewMemoryDocument("", "")
		assert.ErrorIs(t, doc.ShowModal("nope"), ErrElementNotFound)
		assert.ErrorIs(t, doc.HideModal("nope"), ErrElementNotFound)
		assert.False(t, doc.Remove("nope"))
	})

	t.Run("Remove detaches every copy", func(t *testing.T) {
		doc := NewMemoryDocument("", "")
		doc.Append(NewElement("div", "a"))
		doc.Append(NewElement("div", "b"))
		doc.Append(NewElement("div", "a"))

		assert.Equal(t, 2, doc.Count("a"))
		assert.True(t, doc.Remove("a"))
		assert.Equal(t, 0, doc.Count("a"))
		assert.Equal(t, 1, doc.Len())
	})

	t.Run("Render", func(t *testing.T) {
		doc := NewMemoryDocument("<Prévia>", "pt-BR")
		doc.Append(NewElement("div", "a", "status-processing"))

		var sb strings.Builder
		require.NoError(t, doc.Render(&sb))
		out := sb.String()
		assert.Contains(t, out, `<html lang="pt-BR">`)
		assert.Contains(t, out, "&lt;Prévia&gt;")
		assert.Contains(t, out, `<div id="a" class="status-processing"></div>`)
	})
}

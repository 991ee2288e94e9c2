package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	p := Load()
	p.SetString("lastDirectory", "/scans")
	p.SetFloat("canvasZoom", 1.5)
	p.SetBool("canvasFitToWindow", false)
	require.NoError(t, p.Save())

	q := Load()
	assert.Equal(t, "/scans", q.String("lastDirectory"))
	assert.Equal(t, 1.5, q.Float("canvasZoom", 1.0))
	assert.False(t, q.Bool("canvasFitToWindow", true))
}

func TestFallbacks(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	p := Load()
	assert.Equal(t, "", p.String("missing"))
	assert.Equal(t, 2.0, p.Float("missing", 2.0))
	assert.True(t, p.Bool("missing", true))
}

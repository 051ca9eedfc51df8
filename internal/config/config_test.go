package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osu-uwrt/data-collection-webapp/internal/editor"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "./data/frames", cfg.DataDir)
	assert.Equal(t, editor.DefaultOptions(), cfg.EditorOptions())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MIN_BOX_HEIGHT", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://label.example.org, http://localhost:3000,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5.0, cfg.EditorOptions().MinHeight)
	assert.Equal(t, []string{"https://label.example.org", "http://localhost:3000"}, cfg.Origins())
	assert.Equal(t, []string{"label.example.org", "localhost:3000"}, cfg.OriginPatterns())
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("CORNER_SIZE", "wide")
	_, err := Load()
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRouting = `
fallback:
  - coordinacion@example.org
areas:
  "Subdirección Administrativa y Financiera":
    "Almacén": [almacen@example.org]
    "Archivo": [archivo@example.org, correspondencia@example.org]
`

func TestRoutingOwners(t *testing.T) {
	r, err := ParseRouting([]byte(sampleRouting))
	require.NoError(t, err)

	assert.Equal(t, []string{"almacen@example.org"}, r.Owners("Subdirección Administrativa y Financiera", "Almacén"))
	assert.Len(t, r.Owners("Subdirección Administrativa y Financiera", "Archivo"), 2)
	assert.Equal(t, []string{"coordinacion@example.org"}, r.Owners("Subdirección Administrativa y Financiera", "Tesorería"))
	assert.Equal(t, []string{"coordinacion@example.org"}, r.Owners("Otra", "Almacén"))
}

func TestParseRoutingRejectsBadEmail(t *testing.T) {
	_, err := ParseRouting([]byte("areas:\n  A:\n    P: [nobody]\n"))
	assert.Error(t, err)
}

func TestLoadRoutingMissingFile(t *testing.T) {
	r, err := LoadRouting(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, r.Owners("A", "P"))
}

func TestLoadRoutingFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRouting), 0o600))
	r, err := LoadRouting(path)
	require.NoError(t, err)
	assert.NotEmpty(t, r.Areas)
}

func TestLoadWorkflowDefaults(t *testing.T) {
	t.Setenv("WORKFLOW_LONG_PAUSE_DAYS", "")
	t.Setenv("WORKFLOW_TIMEZONE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.Workflow.LongPauseDays)
	assert.Equal(t, "America/Bogota", cfg.Workflow.Timezone)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxUploadSize)

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).In(cfg.Workflow.Location())
	assert.Equal(t, 7, at.Hour())
}

func TestLoadRejectsNonPositiveLongPause(t *testing.T) {
	t.Setenv("WORKFLOW_LONG_PAUSE_DAYS", "-1")
	_, err := Load()
	assert.Error(t, err)
}

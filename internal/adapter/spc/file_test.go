package spc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "240426_rpts_filtered.csv"), []byte(sampleFeed), 0o600))
	src := NewFileSource(dir)

	reports, err := src.FetchReports(context.Background(), "24042612")
	require.NoError(t, err)
	assert.Equal(t, 3, reports.Total())
	assert.True(t, reports[domain.Tornado][0].Significant)

	missing, err := src.FetchReports(context.Background(), "240427")
	require.NoError(t, err)
	assert.Equal(t, 0, missing.Total())
}

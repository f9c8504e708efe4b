package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
	"github.com/ternarybob/condor/internal/models"
	"github.com/ternarybob/condor/internal/pipeline"
)

func testApp(t *testing.T, apiKey string) *App {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "db")
	cfg.Files.OutputDir = t.TempDir()
	cfg.EODHD.APIKey = apiKey

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewWiresProviderOnlyWithKey(t *testing.T) {
	withoutKey := testApp(t, "")
	assert.Nil(t, withoutKey.EODHD)

	state, err := withoutKey.NewState()
	require.NoError(t, err)
	assert.Nil(t, state.PriceSource)
	assert.NotNil(t, state.Storage)

	withKey := testApp(t, "demo")
	require.NotNil(t, withKey.EODHD)
	state, err = withKey.NewState()
	require.NoError(t, err)
	assert.NotNil(t, state.PriceSource)
	assert.NotNil(t, state.FundamentalProvider)
}

func TestRunReportsFailedStages(t *testing.T) {
	a := testApp(t, "")
	ctx := context.Background()

	run, err := a.Run(ctx, pipeline.DownloadStage{}, pipeline.ExportStage{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 stages failed")
	assert.Equal(t, models.StageSkipped, run.Stages[1].Status)

	runs, err := a.StorageManager.RunStorage().ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/internal/brain"
	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/pipelineconfig"
	"github.com/wonny/marketpipe/internal/sources"
	"github.com/wonny/marketpipe/pkg/config"
	"github.com/wonny/marketpipe/pkg/logger"
	"github.com/wonny/marketpipe/pkg/redis"
)

const fixturePath = "../../../testdata/prices.json"

func testConfig() *config.Config {
	return &config.Config{
		HTTP:  config.HTTPConfig{Timeout: time.Second},
		Redis: config.RedisConfig{CacheTTL: time.Minute},
	}
}

func withFixture(t *testing.T, path string) {
	t.Helper()
	prev := fixtureFile
	fixtureFile = path
	t.Cleanup(func() { fixtureFile = prev })
}

func TestBuildRegistry(t *testing.T) {
	withFixture(t, "")

	registry, err := buildRegistry(testConfig(), redis.Disabled(), logger.NewNop())
	require.NoError(t, err)

	ids := map[string]sources.Info{}
	for _, info := range registry.List() {
		ids[info.ID] = info
	}

	require.Contains(t, ids, sources.YahooFinance)
	require.Contains(t, ids, sources.AlphaVantage)
	require.Contains(t, ids, sources.Naver)
	assert.Equal(t, sources.YahooFinance, ids[sources.Primary].AliasOf)
	assert.Equal(t, sources.AlphaVantage, ids[sources.Secondary].AliasOf)
	assert.True(t, ids[sources.AlphaVantage].RequiresAPIKey)
	assert.True(t, ids[sources.AlphaVantage].Authoritative)
}

func TestBuildRegistryFixture(t *testing.T) {
	withFixture(t, fixturePath)

	registry, err := buildRegistry(testConfig(), redis.Disabled(), logger.NewNop())
	require.NoError(t, err)

	src, ok := registry.Get(sources.Primary)
	require.True(t, ok)

	records, err := src.Fetch(context.Background(), contracts.FetchRequest{Ticker: "aapl", Period: "max"})
	require.NoError(t, err)
	assert.Len(t, records, 90)
	assert.False(t, records[40].Close.Valid)
}

func TestBuildRegistryMissingFixture(t *testing.T) {
	withFixture(t, "does-not-exist.json")

	_, err := buildRegistry(testConfig(), redis.Disabled(), logger.NewNop())
	assert.Error(t, err)
}

func TestFixturePipelineRun(t *testing.T) {
	withFixture(t, fixturePath)

	log := logger.NewNop()
	registry, err := buildRegistry(testConfig(), redis.Disabled(), log)
	require.NoError(t, err)

	cfg := contracts.PipelineConfig{}
	require.NoError(t, pipelineconfig.Apply(&cfg, pipelineconfig.Overrides{
		Tickers:     []string{"aapl", "msft"},
		Period:      "max",
		DataSources: []string{sources.Primary},
	}))

	pc := brain.NewPipeline(brain.Deps{Sources: registry}, log).Run(context.Background(), cfg)

	require.True(t, pc.Success(), "errors: %v", pc.Errors)
	require.NotNil(t, pc.Insight)
	assert.Contains(t, pc.Insight.Insights, "AAPL")
	assert.Contains(t, pc.Insight.Insights, "MSFT")
	assert.Contains(t, brain.Summary(pc), pc.RunID)
}

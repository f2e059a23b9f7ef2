package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
sources:
  reddit:
    client_id: id
    client_secret: secret
  searxng:
    base_url: http://localhost:8888
  tavily:
    api_key: tvly-xxx
    max_iterations: 2
research:
  max_communities: 15
  min_subscribers: 0
  relevance_weight: 0.8
  required_sources: [reddit]
  queries:
    - home espresso
log:
  level: debug
concurrency:
  rpm: 120
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.Sources.Reddit.ClientID)
	assert.Equal(t, "https://oauth.reddit.com", cfg.Sources.Reddit.BaseURL)
	assert.Equal(t, "niche_radar/1.0", cfg.Sources.Reddit.UserAgent)
	assert.Equal(t, 30, cfg.Sources.SearXNG.Timeout)
	assert.Equal(t, 2, cfg.Sources.Tavily.MaxIterations)
	assert.Equal(t, "advanced", cfg.Sources.Tavily.SearchDepth)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 120, cfg.Concurrency.RPM)
	assert.Equal(t, 2, cfg.Concurrency.QPS)
	assert.Equal(t, []string{"reddit"}, cfg.Research.RequiredSources)
	assert.Equal(t, []string{"home espresso"}, cfg.Research.Queries)
}

func TestAnalysisConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	ac := cfg.AnalysisConfig("home espresso")
	assert.Equal(t, "home espresso", ac.Query)
	assert.Equal(t, 15, ac.MaxCommunities)
	assert.Equal(t, 25, ac.PostsPerCommunity)
	assert.Equal(t, 0, ac.MinSubscribers, "explicit zero overrides the default")
	assert.Equal(t, 0.5, ac.EngagementWeight)
	assert.Equal(t, 0.8, ac.RelevanceWeight)
	assert.False(t, ac.IncludeNSFW)
}

func TestAnalysisConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	ac := cfg.AnalysisConfig("q")
	assert.Equal(t, 10, ac.MaxCommunities)
	assert.Equal(t, 1000, ac.MinSubscribers)
	assert.Equal(t, 0.5, ac.RelevanceWeight)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/config"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

func TestNewSources_NoneConfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	sources, err := NewSources(context.Background(), cfg)
	require.NoError(t, err)

	assert.Nil(t, sources.Community)
	assert.Nil(t, sources.Web)
	assert.Nil(t, sources.Deep)
	assert.Empty(t, sources.Configured())
	assert.Equal(t, map[string]string{
		search.SourceReddit:  ReasonNoCredentials,
		search.SourceSearXNG: ReasonNoCredentials,
		search.SourceTavily:  ReasonNoAPIKey,
	}, sources.Missing)
}

func TestNewSources_AllConfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sources.Reddit.ClientID = "id"
	cfg.Sources.Reddit.ClientSecret = "secret"
	cfg.Sources.SearXNG.BaseURL = "http://localhost:8888"
	cfg.Sources.Tavily.APIKey = "tvly-xxx"
	cfg.ApplyDefaults()

	sources, err := NewSources(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{search.SourceReddit, search.SourceSearXNG, search.SourceTavily}, sources.Configured())
	assert.Empty(t, sources.Missing)
}

func TestNewSources_PartialRedditCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sources.Reddit.ClientID = "id"
	cfg.ApplyDefaults()

	sources, err := NewSources(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, sources.Community)
	assert.Equal(t, ReasonNoCredentials, sources.Missing[search.SourceReddit])
}

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/logger"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

func TestWriteResults_StdoutStaysParseable(t *testing.T) {
	prev := logger.Log
	t.Cleanup(func() { logger.Log = prev })

	var stdout, stderr bytes.Buffer
	require.NoError(t, logger.InitLoggerTo(&stderr, "info", ""))

	logger.Log.Info("启动细分市场雷达...")
	results := []*model.ResearchResult{{Query: "home espresso", TotalSubscribers: 120000}}
	require.NoError(t, writeResults(&stdout, results))
	logger.Log.Info("✅ 细分市场调研完成")

	var decoded []model.ResearchResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "home espresso", decoded[0].Query)
	assert.Contains(t, stderr.String(), "细分市场调研完成")
}

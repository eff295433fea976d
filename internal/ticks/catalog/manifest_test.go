package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ticksession/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeJSONL(t, dir, "quotes.jsonl", quoteTicks(t, 30))
	writeJSONL(t, dir, "trades.jsonl", tradeTicks(12))

	t.Setenv("TICKS_TOPIC", "recorded-trades")
	manifest := `
prefetch_size: 16
sources:
  - name: quote_tick
    kind: quote
    path: quotes.jsonl
  - name: trade_tick
    kind: trade
    path: trades.jsonl
  - name: replay
    kafka:
      brokers: ["localhost:9092"]
      topic: ${TICKS_TOPIC}
`
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 16, m.PrefetchSize)
	require.Len(t, m.Sources, 3)
	assert.Equal(t, "recorded-trades", m.Sources[2].Kafka.Topic)

	// Drop the Kafka entry so the catalog can be queried without a broker.
	m.Sources = m.Sources[:2]
	c, err := FromManifest(m, Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"quote_tick", "trade_tick"}, c.Names())
	assert.Equal(t, 16, c.cfg.PrefetchSize)

	result, err := c.ToQueryResult(context.Background())
	require.NoError(t, err)
	defer result.Close()

	ticks, err := result.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, ticks, 42)
	assert.True(t, isAscendingByInit(ticks))
}

func TestManifest_Validate(t *testing.T) {
	testCases := []struct {
		name     string
		manifest Manifest
		errMsg   string
	}{
		{
			name:     "negative prefetch",
			manifest: Manifest{PrefetchSize: -1},
			errMsg:   "prefetch_size",
		},
		{
			name:     "missing name",
			manifest: Manifest{Sources: []SourceSpec{{Path: "a"}}},
			errMsg:   "name is required",
		},
		{
			name:     "duplicate name",
			manifest: Manifest{Sources: []SourceSpec{{Name: "a", Path: "a"}, {Name: "a", Path: "b"}}},
			errMsg:   "duplicate",
		},
		{
			name:     "bad kind",
			manifest: Manifest{Sources: []SourceSpec{{Name: "a", Kind: "bar", Path: "a"}}},
			errMsg:   "kind",
		},
		{
			name:     "neither path nor kafka",
			manifest: Manifest{Sources: []SourceSpec{{Name: "a"}}},
			errMsg:   "exactly one",
		},
		{
			name:     "both path and kafka",
			manifest: Manifest{Sources: []SourceSpec{{Name: "a", Path: "a", Kafka: &KafkaConfig{Brokers: []string{"b"}, Topic: "t"}}}},
			errMsg:   "exactly one",
		},
		{
			name:     "kafka without topic",
			manifest: Manifest{Sources: []SourceSpec{{Name: "a", Kafka: &KafkaConfig{Brokers: []string{"b"}}}}},
			errMsg:   "kafka.topic",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.manifest.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [\n"), 0o644))
	_, err = LoadManifest(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "kind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - name: a\n    kind: candle\n    path: a.jsonl\n"), 0o644))
	_, err = LoadManifest(path)
	assert.ErrorContains(t, err, "kind")

	_, err = dto.ParseDataKind("candle")
	assert.Error(t, err)
}

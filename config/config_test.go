package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-startup-map/models"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(NewViper())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Clusters)
	assert.Equal(t, "kmeans", cfg.ClusterMethod)
	assert.Equal(t, int64(42), cfg.ClusterSeed)
	assert.Equal(t, "data/ai_startups.csv", cfg.ProcessedPath)
	assert.Equal(t, "data/clustered_ai_startups.csv", cfg.ClusteredPath)
	require.Len(t, cfg.Sources, 3)
	assert.Equal(t, []string{"Crunchbase", "ProductHunt", "LinkedIn"},
		[]string{cfg.Sources[0].Name, cfg.Sources[1].Name, cfg.Sources[2].Name})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLUSTERS", "7")
	t.Setenv("CLUSTER_METHOD", "Hierarchical")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("SOURCES", "Only=in.csv")

	cfg, err := FromViper(NewViper())
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Clusters)
	assert.Equal(t, "hierarchical", cfg.ClusterMethod)
	assert.Contains(t, cfg.DSN(), "host=db.internal")
	assert.Equal(t, []models.SourceSpec{{Name: "Only", Path: "in.csv"}}, cfg.Sources)
}

func TestParseSources(t *testing.T) {
	tests := []struct {
		raw     string
		want    []models.SourceSpec
		wantErr bool
	}{
		{"A=a.csv, B = b.csv", []models.SourceSpec{{Name: "A", Path: "a.csv"}, {Name: "B", Path: "b.csv"}}, false},
		{"A=a.csv,,", []models.SourceSpec{{Name: "A", Path: "a.csv"}}, false},
		{"a.csv", nil, true},
		{"A=", nil, true},
		{"A=a.csv,A=b.csv", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseSources(tt.raw)
		if tt.wantErr {
			assert.ErrorIs(t, err, models.ErrInvalidConfig, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestValidateRejects(t *testing.T) {
	base := func() *Config {
		cfg, err := FromViper(NewViper())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero clusters", func(c *Config) { c.Clusters = 0 }},
		{"no sources", func(c *Config) { c.Sources = nil }},
		{"empty method", func(c *Config) { c.ClusterMethod = "" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, models.KindInvalidConfig, models.KindOf(err))
		})
	}
}

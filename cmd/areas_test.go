package cmd

import (
	"io"
	"testing"

	"github.com/foomo/recordstore/pkg/area"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func areaCommand(t *testing.T, values map[string]string) (*cobra.Command, *viper.Viper) {
	t.Helper()
	cmd := &cobra.Command{}
	v := newViper()
	addAreaFlags(cmd.Flags(), v)
	for name, value := range values {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	return cmd, v
}

func TestCreateAreas(t *testing.T) {
	_, v := areaCommand(t, map[string]string{
		"local-path":  ":memory:",
		"sync-bucket": "mem://",
		"sync-prefix": "records",
	})

	areas, closers, err := createAreas(t.Context(), v, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, closeAll(closers))
	})

	for _, kind := range area.Kinds {
		a, ok := areas[kind]
		require.True(t, ok, kind)
		assert.Equal(t, area.DefaultQuota(kind), a.Quota())
	}
}

func TestCreateAreas_InvalidBucket(t *testing.T) {
	_, v := areaCommand(t, map[string]string{
		"local-path":  ":memory:",
		"sync-bucket": "ftp://bucket",
	})
	_, _, err := createAreas(t.Context(), v, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestNewConfig(t *testing.T) {
	t.Setenv("RECORDSTORE_DEFAULT_AREA", "sync")

	cmd, v := areaCommand(t, nil)
	cfg, err := newConfig(cmd, v)
	require.NoError(t, err)
	assert.Equal(t, area.KindSync, cfg.DefaultArea)

	cmd, v = areaCommand(t, map[string]string{"default-area": "session"})
	cfg, err = newConfig(cmd, v)
	require.NoError(t, err)
	assert.Equal(t, area.KindSession, cfg.DefaultArea)
}

func TestIsValidBlobScheme(t *testing.T) {
	assert.True(t, isValidBlobScheme("gs://bucket"))
	assert.True(t, isValidBlobScheme("file:///tmp/records"))
	assert.False(t, isValidBlobScheme("/tmp/records"))
}

func TestCloseAll(t *testing.T) {
	require.NoError(t, closeAll([]io.Closer{area.NewMemory(), area.NewMemory()}))
}

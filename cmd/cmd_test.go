package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gcalauth/internal/calendar"
	"github.com/teemow/gcalauth/internal/server"
)

func TestWriteOutput(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := calendar.Record{ID: "e1", Name: "Standup", Start: &start, Sequence: 2}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputJSON, rec))
	assert.Contains(t, buf.String(), `"id": "e1"`)
	assert.Contains(t, buf.String(), `"start": "2024-03-01T10:00:00Z"`)

	buf.Reset()
	require.NoError(t, writeOutput(&buf, outputYAML, rec))
	assert.Contains(t, buf.String(), "id: e1\n")
	assert.Contains(t, buf.String(), "name: Standup\n")
	assert.Contains(t, buf.String(), "sequence: 2\n")

	assert.Error(t, writeOutput(&buf, "xml", rec))
}

func TestLoadServeEnvVars(t *testing.T) {
	newCmd := func(args ...string) *cobra.Command {
		cmd := newServeCmd()
		require.NoError(t, cmd.ParseFlags(args))
		return cmd
	}

	t.Run("env applies when flags are unset", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", ":8181")
		t.Setenv("METRICS_ENABLED", "false")
		t.Setenv("METRICS_ADDR", ":9191")

		addr := server.DefaultAddr
		metrics := MetricsConfig{Enabled: true, Addr: server.DefaultMetricsAddr}
		loadServeEnvVars(newCmd(), &addr, &metrics)

		assert.Equal(t, ":8181", addr)
		assert.False(t, metrics.Enabled)
		assert.Equal(t, ":9191", metrics.Addr)
	})

	t.Run("flags win over env", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", ":8181")
		t.Setenv("METRICS_ENABLED", "false")

		addr := ":7070"
		metrics := MetricsConfig{Enabled: true, Addr: server.DefaultMetricsAddr}
		loadServeEnvVars(newCmd("--http-addr", ":7070", "--metrics-enabled=true"), &addr, &metrics)

		assert.Equal(t, ":7070", addr)
		assert.True(t, metrics.Enabled)
	})

	t.Run("unparseable bool is ignored", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "sometimes")
		metrics := MetricsConfig{Enabled: true}
		addr := ""
		loadServeEnvVars(newCmd(), &addr, &metrics)
		assert.True(t, metrics.Enabled)
	})
}

func TestTokenFlags(t *testing.T) {
	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(envAccessToken, "T1")
		t.Setenv(envRefreshToken, "R1")

		cmd := &cobra.Command{Use: "x"}
		var f tokenFlags
		f.register(cmd)
		require.NoError(t, cmd.ParseFlags(nil))
		require.NoError(t, f.resolve(cmd))
		assert.Equal(t, "T1", f.accessToken)
		assert.Equal(t, "R1", f.refreshToken)
	})

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(envAccessToken, "T1")

		cmd := &cobra.Command{Use: "x"}
		var f tokenFlags
		f.register(cmd)
		require.NoError(t, cmd.ParseFlags([]string{"--token", "T2"}))
		require.NoError(t, f.resolve(cmd))
		assert.Equal(t, "T2", f.accessToken)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv(envAccessToken, "")

		cmd := &cobra.Command{Use: "x"}
		var f tokenFlags
		f.register(cmd)
		require.NoError(t, cmd.ParseFlags(nil))
		assert.Error(t, f.resolve(cmd))
	})
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "gcalauth version 1.2.3\n", out.String())
}

func TestLoadZone(t *testing.T) {
	loc, err := loadZone("")
	require.NoError(t, err)
	assert.Nil(t, loc)

	loc, err = loadZone("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = loadZone("Nowhere/Land")
	assert.Error(t, err)
}

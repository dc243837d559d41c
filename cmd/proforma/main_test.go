package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/config"
)

const testConfig = "../../test/test_config.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LoggingConfig
		override string
		wantErr  bool
	}{
		{name: "defaults", cfg: config.LoggingConfig{}},
		{name: "console debug", cfg: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "override wins", cfg: config.LoggingConfig{Level: "bogus"}, override: "warn"},
		{name: "invalid level", cfg: config.LoggingConfig{Level: "verbose"}, wantErr: true},
		{name: "invalid format", cfg: config.LoggingConfig{Format: "xml"}, wantErr: true},
		{name: "output file", cfg: config.LoggingConfig{OutputFile: filepath.Join(t.TempDir(), "logs", "proforma.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.cfg, tt.override)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestRunCommandCSV(t *testing.T) {
	out, err := execute(t, "run", "--config", testConfig, "--output-format", "csv", "--log-level", "error")
	require.NoError(t, err)

	for _, name := range []string{"reference case", "saas upside", "retail downside"} {
		require.Contains(t, out, "Scenario;"+name)
	}
	require.NotContains(t, out, "shelved expansion")
}

func TestRunCommandPretty(t *testing.T) {
	out, err := execute(t, "run", "--config", testConfig, "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "reference case")
	require.Contains(t, out, "Verdict:")
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing config", args: []string{"run", "--config", filepath.Join(t.TempDir(), "absent.yaml")}},
		{name: "bad output format", args: []string{"run", "--config", testConfig, "--output-format", "xml"}},
		{name: "bad log level", args: []string{"run", "--config", testConfig, "--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestTemplatesCommand(t *testing.T) {
	out, err := execute(t, "templates")
	require.NoError(t, err)
	for _, s := range assumptions.Sectors() {
		require.Contains(t, out, s.Key)
	}

	out, err = execute(t, "templates", "--json")
	require.NoError(t, err)
	var sectors []assumptions.SectorTemplate
	require.NoError(t, json.Unmarshal([]byte(out), &sectors))
	require.Equal(t, assumptions.Sectors(), sectors)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "proforma dev", strings.TrimSpace(out))
}

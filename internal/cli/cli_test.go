package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureDataDir = "../config/testdata"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["verify"])
}

func TestRunCommand_BatchModePrintsSummary(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	out, err := execute(t,
		"run",
		"--seed", "7",
		"--ticks", "3",
		"--db", dbPath,
		"--data-dir", fixtureDataDir,
		"--run-id", "cli-batch-test",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "RUN SUMMARY")
	assert.Contains(t, out, "cli-batch-test")
	assert.Contains(t, out, "final tick:     3")
}

func TestRunCommand_MissingDataDir(t *testing.T) {
	_, err := execute(t,
		"run",
		"--ticks", "1",
		"--data-dir", "no-such-dir",
		"--run-id", "cli-missing-config",
	)
	require.Error(t, err)
}

func TestVerifyCommand_ReportsDeterminism(t *testing.T) {
	out, err := execute(t,
		"verify",
		"--seed", "7",
		"--ticks", "5",
		"--data-dir", fixtureDataDir,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "OK:")
}

package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-io/switchyard/internal/cli"
)

func writeTurnstile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	def := `
id: turnstile
initial: locked
transitions:
  locked:
    COIN: unlocked
  unlocked:
    PUSH: locked
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "turnstile.yaml"), []byte(def), 0o644))
	return dir
}

func TestRunSession_Script(t *testing.T) {
	dir := writeTurnstile(t)

	script := strings.Join([]string{
		"machines",
		"send turnstile COIN",
		"state turnstile",
		"send turnstile COIN",
		"history turnstile",
		"reset turnstile --clear-history",
		"state turnstile",
		"quit",
	}, "\n")

	var out bytes.Buffer
	err := cli.RunSession(cli.RunOptions{
		Dir:    dir,
		Quiet:  true,
		Input:  strings.NewReader(script),
		Output: &out,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "turnstile\tlocked")
	assert.Contains(t, text, "locked -> unlocked")
	assert.Contains(t, text, "no transition for COIN in state unlocked")
	assert.Contains(t, text, "locked -> unlocked on COIN")
	assert.Contains(t, text, "turnstile reset to locked")
}

func TestRunSession_UnknownCommand(t *testing.T) {
	dir := writeTurnstile(t)

	var out bytes.Buffer
	err := cli.RunSession(cli.RunOptions{
		Dir:    dir,
		Quiet:  true,
		Input:  strings.NewReader("bogus\n"),
		Output: &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `unknown command "bogus"`)
}

func TestRunSession_Graph(t *testing.T) {
	dir := writeTurnstile(t)

	var out bytes.Buffer
	err := cli.RunSession(cli.RunOptions{
		Dir:    dir,
		Quiet:  true,
		Input:  strings.NewReader("graph turnstile\n"),
		Output: &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), `locked -- "COIN" --> unlocked`)
}

func TestRunSession_MissingDir(t *testing.T) {
	err := cli.RunSession(cli.RunOptions{
		Dir:    filepath.Join(t.TempDir(), "absent"),
		Quiet:  true,
		Input:  strings.NewReader(""),
		Output: &bytes.Buffer{},
	})
	assert.Error(t, err)
}

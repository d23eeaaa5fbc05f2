package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	})

	SetLevel("info")
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetLevel("DEBUG")
	Debugf("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
}

func TestOpenFileSinkWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	f, err := OpenFileSink(path)
	require.NoError(t, err)
	require.NotNil(t, f)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		f.Close()
	})

	Infof("price observed asset=%s", "BTC")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "price observed asset=BTC")
}

func TestOpenFileSinkEmptyPath(t *testing.T) {
	f, err := OpenFileSink("  ")
	assert.NoError(t, err)
	assert.Nil(t, f)
}

func TestSetLevelNames(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	})

	SetLevel("warning")
	Infof("quiet")
	Warnf("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	SetLevel("nonsense")
	Infof("back to info")
	assert.Contains(t, buf.String(), "back to info")
}

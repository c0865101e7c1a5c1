package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New(Config{Level: "DEBUG"}).GetLevel())
	assert.Equal(t, logrus.InfoLevel, New(Config{Level: "bogus"}).GetLevel())
}

func TestWithComponentJSON(t *testing.T) {
	l := New(Config{Level: "info"})
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.WithComponent("pricing").WithField("product_id", 7).Info("optimized")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "pricing", rec["component"])
	assert.Equal(t, "optimized", rec["message"])
	assert.Equal(t, "info", rec["level"])
	assert.EqualValues(t, 7, rec["product_id"])
	assert.Contains(t, rec, "timestamp")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(Config{Level: "info", Format: "text", File: path})
	l.WithComponent("test").Info("hello")
	assert.FileExists(t, path)
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() { l.WithComponent("x").Error("dropped") })
}

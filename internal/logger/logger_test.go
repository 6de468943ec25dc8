// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "******7890", Mask("1234567890"))
}

func TestRedact(t *testing.T) {
	kv := []interface{}{"api_key", "secretvalue1234", "item_key", "ABCD1234", "count", 3}
	out := redact(kv)

	assert.Equal(t, "***********1234", out[1])
	assert.Equal(t, "ABCD1234", out[3])
	assert.Equal(t, 3, out[5])
	// The input slice is left untouched.
	assert.Equal(t, "secretvalue1234", kv[1])
}

func TestNewLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "INFO", "warn", "error"} {
		l, err := New(lvl)
		require.NoError(t, err, lvl)
		require.NotNil(t, l)
	}

	_, err := New("loud")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	require.NotNil(t, l)
	l.Warn("discarded", "k", "v")
}

func TestWithAndErrorCarryRedactedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	child := l.With("service", "zotero", "api_key", "secretvalue1234")
	child.Error("note failed after filing", "item_key", "ABCD1234")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "zotero", fields["service"])
	assert.Equal(t, "***********1234", fields["api_key"])
	assert.Equal(t, "ABCD1234", fields["item_key"])

	// The parent logger is unchanged.
	l.Info("plain")
	assert.NotContains(t, logs.All()[1].ContextMap(), "service")
}

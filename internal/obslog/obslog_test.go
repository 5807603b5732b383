package obslog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestForScopesComponentField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(zerolog.InfoLevel)

	For("check").Warn("unreachable task", map[string]interface{}{"task": "Task1"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "check", entry["component"])
	require.Equal(t, "Task1", entry["task"])
	require.Equal(t, "unreachable task", entry["message"])
	require.Equal(t, "warn", entry["level"])
}

func TestSetLevelSuppressesBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(zerolog.WarnLevel)

	For("parse").Info("should not appear", nil)

	require.Empty(t, buf.Bytes())
}

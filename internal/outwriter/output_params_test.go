package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteParameterTable(t *testing.T) {
	fmtFloat, _ := createFormatters(1)
	var buf bytes.Buffer
	require.NoError(t, writeParameterTable(&buf, schema.DefaultParameters(), fmtFloat))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "MAX OFFSET")
	assert.Contains(t, out, "262")
	assert.Contains(t, out, "100.0")
	assert.Contains(t, out, "213/215")
	assert.Contains(t, out, "4 parameters configured")
}

func TestWriteParameterCSV(t *testing.T) {
	var buf bytes.Buffer
	params := schema.DefaultParameters()
	require.NoError(t, writeParameterCSV(&buf, params))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(params)+1)
	assert.Equal(t, "spec", lines[0])

	// Each spec parses back into the same parameter
	for i, line := range lines[1:] {
		pi, err := contract.ParseParameterInfo(strings.Trim(line, `"`))
		require.NoError(t, err)
		assert.Equal(t, params[i].ID, pi.ID)
		assert.Equal(t, params[i].MaxOffset, pi.MaxOffset)
	}
}

func TestPrintParameters_JSON(t *testing.T) {
	cfg := &contract.Config{Output: schema.JSONOut, Precision: 2}
	cfg.OutputFile = filepath.Join(t.TempDir(), "params.json")

	ow := NewOutWriter()
	require.NoError(t, ow.WriteParameters(schema.DefaultParameters(), cfg))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var decoded []schema.ParameterInfo
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 4)
	assert.Equal(t, schema.ParamTA, decoded[1].DewPointOf)
	assert.Equal(t, schema.ParamTAX, decoded[0].MaxParam)
}

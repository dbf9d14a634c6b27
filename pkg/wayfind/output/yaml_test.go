package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleResult()))

	var out yamlOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.Matches, 2)
	assert.Equal(t, "api/docs", out.Matches[0].RelPath)
	assert.Equal(t, float64(100), out.Matches[0].Score)
	assert.Equal(t, int64(240), out.Stats.Candidates)
	assert.Equal(t, "folders", out.Meta.Scope)
	assert.Equal(t, 2, out.Meta.TotalMatches)
}

func TestYAMLFormatter_EmptySearch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, &Result{}))

	var out yamlOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Empty(t, out.Matches)
	assert.Equal(t, 0, out.Meta.TotalMatches)
}

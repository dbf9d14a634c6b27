package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var out jsonOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.Matches, 2)
	assert.Equal(t, "/home/user/projects/api/docs", out.Matches[0].Path)
	assert.Equal(t, "api/docs", out.Matches[0].RelPath)
	assert.True(t, out.Matches[0].IsDir)
	assert.Equal(t, float64(100), out.Matches[0].Score)

	assert.Equal(t, int64(240), out.Stats.Candidates)
	assert.Equal(t, int64(12), out.Stats.DirsWalked)
	assert.Equal(t, "15ms", out.Stats.Elapsed)

	assert.Equal(t, "/home/user/projects", out.Meta.Root)
	assert.Equal(t, []string{"api", "docs"}, out.Meta.Query)
	assert.Equal(t, "folders", out.Meta.Scope)
	assert.True(t, out.Meta.DaemonUp)
	assert.Equal(t, 2, out.Meta.TotalMatches)
}

func TestJSONFormatter_Reason(t *testing.T) {
	r := sampleResult()
	r.Search.Matches = nil
	r.Search.Reason = "query too short"

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, r))

	var out jsonOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Empty(t, out.Matches)
	assert.Equal(t, "query too short", out.Meta.Reason)
}

func TestJSONLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONLFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	for _, line := range lines {
		var m jsonMatch
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		assert.NotEmpty(t, m.Path)
	}
}

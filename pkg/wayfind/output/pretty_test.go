package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Root:")
	assert.Contains(t, out, "Query:")
	assert.Contains(t, out, "api docs")
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "Matches:")
}

func TestPrettyFormatter_NoMatches(t *testing.T) {
	r := sampleResult()
	r.Search.Matches = nil

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), "No matches found")
}

func TestPrettyFormatter_Reason(t *testing.T) {
	r := sampleResult()
	r.Search.Matches = nil
	r.Search.Reason = "query too short"

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), "query too short")
}

func TestPrettyFormatter_NilSearch(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, (&PrettyFormatter{}).Format(&buf, &Result{}))
}

func TestPrettyFormatter_Warnings(t *testing.T) {
	r := sampleResult()
	r.Warnings = []string{"permission denied: /home/user/projects/private"}

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), "Warnings:")
	assert.Contains(t, buf.String(), "permission denied")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"milliseconds", "15ms", "15ms"},
		{"seconds", "2s", "2.0s"},
		{"minutes", "90s", "1m 30s"},
		{"hours", "3700s", "1h 1m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := time.ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, formatDuration(d))
		})
	}
}

func TestStylePath(t *testing.T) {
	f := &PrettyFormatter{}

	dir := f.stylePath(types.Match{
		Entry: types.Entry{IsDir: true},
		Path:  "/tmp/x",
	})
	assert.Contains(t, dir, "/tmp/x/")

	file := f.stylePath(types.Match{Path: "/tmp/y"})
	assert.Contains(t, file, "/tmp/y")
}

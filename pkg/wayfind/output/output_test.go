package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// sampleResult builds a small two-match result used across formatter tests.
func sampleResult() *Result {
	return &Result{
		Search: &types.SearchResult{
			Root:  "/home/user/projects",
			Query: []string{"api", "docs"},
			Scope: types.ScopeFolders,
			Matches: []types.Match{
				{
					Entry: types.Entry{RelPath: "api/docs", Name: "docs", IsDir: true, Depth: 2},
					Path:  "/home/user/projects/api/docs",
					Score: 100,
				},
				{
					Entry: types.Entry{RelPath: "api/docs-old", Name: "docs-old", IsDir: true, Depth: 2},
					Path:  "/home/user/projects/api/docs-old",
					Score: 80,
				},
			},
			Candidates: 240,
			DirsWalked: 12,
			Elapsed:    15 * time.Millisecond,
		},
		DaemonUp: true,
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("test", func() Formatter { return &PathsFormatter{} })

	f, err := reg.Get("test")
	require.NoError(t, err)
	assert.NotNil(t, f)

	_, err = reg.Get("nope")
	assert.Error(t, err)

	assert.Equal(t, []string{"test"}, reg.Available())
}

func TestDefaultRegistryHasAllFormatters(t *testing.T) {
	for _, name := range []string{
		"paths", "null", "plain", "json", "jsonl",
		"yaml", "tsv", "csv", "markdown", "template", "pretty", "tree",
	} {
		f, err := Get(name)
		require.NoError(t, err, "formatter %s not registered", name)
		assert.NotNil(t, f)
	}
}

func TestResult_BestScore(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, float64(100), r.BestScore())

	empty := &Result{Search: &types.SearchResult{}}
	assert.Equal(t, float64(0), empty.BestScore())

	nilSearch := &Result{}
	assert.Equal(t, float64(0), nilSearch.BestScore())
}

func TestResult_Matches(t *testing.T) {
	r := sampleResult()
	assert.Len(t, r.Matches(), 2)

	nilSearch := &Result{}
	assert.Nil(t, nilSearch.Matches())
}

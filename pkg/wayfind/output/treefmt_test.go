package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TreeFormatter{}).Format(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "api")
	assert.Contains(t, out, "docs/")
	assert.Contains(t, out, "└── ")
}

func TestTreeFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TreeFormatter{}).Format(&buf, &Result{}))
	assert.Empty(t, buf.String())
}

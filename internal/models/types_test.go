package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayKeepsCommasAndQuotesInsideElements(t *testing.T) {
	in := StringArray{"go", `say "hi"`, "a,b"}

	v, err := in.Value()
	require.NoError(t, err)

	var out StringArray
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestStringArrayScanEmptyAndJSON(t *testing.T) {
	var s StringArray
	require.NoError(t, s.Scan("{}"))
	assert.Empty(t, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	require.NoError(t, s.Scan([]byte(`["x","y"]`)))
	assert.Equal(t, StringArray{"x", "y"}, s)

	assert.Error(t, s.Scan(42))
}

func TestPostStatusValid(t *testing.T) {
	for _, st := range AllPostStatuses {
		assert.True(t, st.Valid(), st)
	}
	assert.False(t, PostStatus("archived").Valid())
}

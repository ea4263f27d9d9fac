package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHashtags(t *testing.T) {
	got := NormalizeHashtags([]string{" #Go ", "go", "", "'backend'", "##cloud", "  "})
	assert.Equal(t, []string{"Go", "backend", "cloud"}, got)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"go", "backend"}, ParseTags(`["go", #backend]`))
	assert.Empty(t, ParseTags(""))
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "short", Truncate("short", 50))
	assert.Equal(t, "", Truncate("anything", 0))
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Ada", FirstName("  Ada Lovelace "))
	assert.Equal(t, "", FirstName(""))
}

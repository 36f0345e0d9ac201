package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  @Alice "))
	assert.Equal(t, "bob", NormalizeUsername("BOB"))
	assert.Equal(t, "", NormalizeUsername("  @  "))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.co", NormalizeEmail(" A@B.Co "))
}

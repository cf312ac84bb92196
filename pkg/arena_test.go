package teeny

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArenaInternReturnsEqualText(t *testing.T) {
	a := NewArena()
	assert.Equal(t, "hello", a.Intern("hello"))
	assert.Equal(t, "", a.Intern(""))
}

func TestArenaInternedStringsSurviveAcrossGrowth(t *testing.T) {
	a := NewArena()
	var strs []string
	for i := 0; i < 10_000; i++ {
		strs = append(strs, a.Intern("token"))
	}
	for _, s := range strs {
		assert.Equal(t, "token", s)
	}
}

func TestArenaHandlesAllocationLargerThanSlab(t *testing.T) {
	a := NewArena()
	big := make([]byte, arenaInitialSlabSize*3)
	for i := range big {
		big[i] = 'x'
	}
	got := a.Intern(string(big))
	assert.Equal(t, string(big), got)
}

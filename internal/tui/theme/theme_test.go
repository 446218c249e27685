package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByNameFallsBack(t *testing.T) {
	assert.Equal(t, "tokyo-night", ByName("tokyo-night").Name)
	assert.Equal(t, FlexokiDark.Name, ByName("nope").Name)
	assert.True(t, Valid("terminal"))
	assert.False(t, Valid(""))
	assert.Len(t, Names(), len(All))
}

func TestSignedColors(t *testing.T) {
	assert.Equal(t, FlexokiDark.Red, FlexokiDark.Signed(true))
	assert.Equal(t, FlexokiDark.Green, FlexokiDark.Signed(false))
}

func TestPendingUsesOrange(t *testing.T) {
	for _, th := range All {
		assert.Equal(t, th.Orange, th.Pending(), th.Name)
	}
}

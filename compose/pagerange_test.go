package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	pr, err := ParsePageRange("1,3-5,8-")
	require.NoError(t, err)

	for n, want := range map[int]bool{
		1: true, 2: false, 3: true, 4: true, 5: true,
		6: false, 7: false, 8: true, 100: true,
	} {
		assert.Equal(t, want, pr.Contains(n), "page %d", n)
	}
}

func TestParsePageRangeEmptySelectsAll(t *testing.T) {
	pr, err := ParsePageRange("  ")
	require.NoError(t, err)
	require.Nil(t, pr)
	assert.True(t, pr.Contains(1))
	assert.True(t, pr.Contains(9999))
}

func TestParsePageRangeErrors(t *testing.T) {
	for _, bad := range []string{"0", "-3", "a", "1,,2", "5-2", "1-x"} {
		_, err := ParsePageRange(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParsePageRangeSingleAndSpaces(t *testing.T) {
	pr, err := ParsePageRange(" 2 , 4 - 6 ")
	require.NoError(t, err)
	assert.False(t, pr.Contains(1))
	assert.True(t, pr.Contains(2))
	assert.True(t, pr.Contains(5))
	assert.False(t, pr.Contains(7))
}
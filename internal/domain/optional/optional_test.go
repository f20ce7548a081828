package optional

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroValueIsAbsent(t *testing.T) {
	var limit Value[int]

	_, ok := limit.Get()
	require.False(t, ok)
	require.Equal(t, 10, limit.OrElse(10))
}

func TestPresentZeroIsKept(t *testing.T) {
	limit := Of(0)

	v, ok := limit.Get()
	require.True(t, ok)
	require.Equal(t, 0, v)
	require.Equal(t, 0, limit.OrElse(10))
}

func TestApply(t *testing.T) {
	target := "old"

	require.False(t, None[string]().Apply(&target))
	require.Equal(t, "old", target)

	require.True(t, Of("new").Apply(&target))
	require.Equal(t, "new", target)
}

package pwm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	for in, expect := range map[int]int{-5: 0, 0: 0, 42: 42, 100: 100, 130: 100} {
		require.Equal(t, expect, Clamp(in))
	}
}

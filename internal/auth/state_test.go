package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateState(t *testing.T) {
	t.Parallel()

	a, err := generateState()
	require.NoError(t, err)
	b, err := generateState()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestStatesMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		got, want string
		match     bool
	}{
		{name: "一致", got: "abc", want: "abc", match: true},
		{name: "不一致", got: "abc", want: "abd", match: false},
		{name: "長さ違い", got: "abc", want: "abcd", match: false},
		{name: "受信側が空", got: "", want: "abc", match: false},
		{name: "両方空", got: "", want: "", match: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.match, statesMatch(tt.got, tt.want))
		})
	}
}

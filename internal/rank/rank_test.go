package rank

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSort_Literals(t *testing.T) {
	tbl, err := Lookup("v1")
	require.NoError(t, err)

	cases := []struct {
		in   string
		want int
	}{
		{"優勝", 1},
		{"準優勝", 2},
		{"ベスト4", 3},
		{"ベスト４", 3},
		{"決勝進出", 12},
		{"準決勝進出", 50},
		{" 準決勝　進出 ", 50},
		{"準々決勝進出", 100},
		{"1回戦敗退", 5000},
		{"１回戦敗退", 5000},
		{"2位", 2},
		{"第10位", 10},
		{"敗者復活", Unranked},
		{"", Unranked},
		{"null", Unranked},
		{"NULL", Unranked},
		{"マイナビ賞", Unranked},
	}
	for _, c := range cases {
		require.Equal(t, c.want, tbl.Sort(c.in), "rank %q", c.in)
	}
}

func TestSort_V2AddsSynonym(t *testing.T) {
	tbl, err := Lookup("")
	require.NoError(t, err)
	require.Equal(t, Latest, tbl.Version)
	require.Equal(t, 2, tbl.Sort("マイナビ賞"))
	require.Equal(t, 1, tbl.Sort("優勝"))

	v1, err := Lookup("v1")
	require.NoError(t, err)
	_, ok := v1.Literals["マイナビ賞"]
	require.False(t, ok, "extending must not mutate the base table")
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("v0")
	require.Error(t, err)
	require.Contains(t, Versions(), "v1")
	require.Contains(t, Versions(), "v2")
}

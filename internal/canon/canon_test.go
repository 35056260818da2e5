package canon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  ミルク　ボーイ ", "ミルク ボーイ"},
		{"ＡＢＣ１２３", "ABC123"},
		{"ﾐﾙｸﾎﾞｰｲ", "ミルクボーイ"},
		{"a \t\n  b", "a b"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestToHiragana(t *testing.T) {
	require.Equal(t, "みるくぼーい", ToHiragana("ミルクボーイ"))
	require.Equal(t, "かまいたち", ToHiragana("かまいたち"))
	require.Equal(t, "霜降り明星", ToHiragana("霜降り明星"))
	require.Equal(t, "ゔ", ToHiragana("ヴ"))
}

func TestIsKanaOnly(t *testing.T) {
	require.True(t, IsKanaOnly("ミルクボーイ"))
	require.True(t, IsKanaOnly("ぺこぱ"))
	require.True(t, IsKanaOnly("ナイツ・ハイツ"))
	require.True(t, IsKanaOnly("ﾐﾙｸﾎﾞｰｲ"))
	require.False(t, IsKanaOnly("霜降り明星"))
	require.False(t, IsKanaOnly("M-1"))
	require.False(t, IsKanaOnly("   "))
}

func TestNormalizeReading(t *testing.T) {
	require.Nil(t, NormalizeReading("  "))
	got := NormalizeReading(" シモフリ　ミョウジョウ ")
	require.NotNil(t, got)
	require.Equal(t, "しもふり みょうじょう", *got)
}

func TestGuessReading(t *testing.T) {
	require.Nil(t, GuessReading("和牛"))
	got := GuessReading("ミルクボーイ")
	require.NotNil(t, got)
	require.Equal(t, "みるくぼーい", *got)
}

func TestFuzzyKey(t *testing.T) {
	require.Equal(t, FuzzyKey("ナイツ・ハイツ"), FuzzyKey("ないつ はいつ"))
	require.Equal(t, "みるくぼーい", FuzzyKey("ミルク・ボーイ"))
	require.NotEqual(t, FuzzyKey("和牛"), FuzzyKey("和牛2"))
}

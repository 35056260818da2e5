package csvutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_BOMTrimAndLines(t *testing.T) {
	in := "\xEF\xBB\xBF name , note\n 和牛 , \n\n,\nミルクボーイ,2\n"
	tbl, err := Parse("comedians.csv", strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []string{"name", "note"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)

	require.Equal(t, 2, tbl.Rows[0].Line)
	require.Equal(t, "和牛", tbl.Rows[0].Get("name"))
	require.Equal(t, "", tbl.Rows[0].Get("note"))
	require.Equal(t, 5, tbl.Rows[1].Line)
	require.Equal(t, "2", tbl.Rows[1].First("number", "note"))
	require.Equal(t, "", tbl.Rows[1].Get("unknown"))
}

func TestParse_ShortRowsAndEmpty(t *testing.T) {
	tbl, err := Parse("x.csv", strings.NewReader("a,b,c\n1\n"))
	require.NoError(t, err)
	require.Equal(t, "1", tbl.Rows[0].Get("a"))
	require.Equal(t, "", tbl.Rows[0].Get("c"))

	tbl, err = Parse("x.csv", strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, tbl.Header)
	require.Empty(t, tbl.Rows)
}

func TestTable_NonBlankAndHas(t *testing.T) {
	tbl, err := Parse("x.csv", strings.NewReader("k,v\na,1\nb,\nc,3\n"))
	require.NoError(t, err)
	require.True(t, tbl.Has("v"))
	require.False(t, tbl.Has("w"))
	require.Equal(t, []string{"1", "3"}, tbl.NonBlank("v"))
}

func TestDirSource_MissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "judges.csv"), []byte("name\n松本人志\n"), 0o644))

	src := DirSource{Dir: dir}
	tbl, err := src.Table("judges.csv")
	require.NoError(t, err)
	require.False(t, tbl.Missing)
	require.Len(t, tbl.SHA256, 64)
	require.Len(t, tbl.Rows, 1)

	tbl, err = src.Table("memberships.csv")
	require.NoError(t, err)
	require.True(t, tbl.Missing)
	require.Empty(t, tbl.Rows)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"a", "b"}, [][]string{{"1", "x,y"}}))
	require.Equal(t, "a,b\n1,\"x,y\"\n", buf.String())
}

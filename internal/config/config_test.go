package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  seed_dir: csv
  db_path: out/a.sqlite
import:
  rank_table: v1
columns:
  memo:
    label: 備考
    pref_order: 30
    hidden: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "csv", cfg.Paths.SeedDir)
	require.Equal(t, "out/a.sqlite", cfg.Paths.DBPath)
	require.Equal(t, "", cfg.Paths.TmpPath)
	require.Equal(t, "v1", cfg.Import.RankTable)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 8080, cfg.Server.Port)

	ov := cfg.Overrides()
	require.Equal(t, "備考", ov["memo"].Label)
	require.Equal(t, 30, *ov["memo"].PrefOrder)
	require.True(t, ov["memo"].Hidden)
	require.Equal(t, "キャッチコピー", ov["catchphrase"].Label)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ARCHIVE_DB_PATH", "/tmp/x.sqlite")
	t.Setenv("ARCHIVE_RANK_TABLE", "v1")
	t.Setenv("ARCHIVE_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths:\n  db_path: data/awards.sqlite\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.sqlite", cfg.Paths.DBPath)
	require.Equal(t, "v1", cfg.Import.RankTable)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	testChdir(t, t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "seed_csv", cfg.Paths.SeedDir)
	require.Equal(t, "data/awards.sqlite", cfg.Paths.DBPath)
}

// testChdir 等价于 Go 1.24 的 t.Chdir：切换工作目录并在测试结束时恢复。
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

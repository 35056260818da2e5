package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"OwaraiArchive/internal/schema"
	"OwaraiArchive/internal/service"

	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	seedDir string
	dbPath  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	e := &cliEnv{seedDir: filepath.Join(dir, "seed"), dbPath: filepath.Join(dir, "data", "awards.sqlite")}
	require.NoError(t, os.MkdirAll(e.seedDir, 0o755))
	t.Setenv("ARCHIVE_SEED_DIR", e.seedDir)
	t.Setenv("ARCHIVE_DB_PATH", e.dbPath)
	t.Setenv("ARCHIVE_LOG_LEVEL", "error")
	testChdir(t, dir)

	e.write(t, "competitions.csv", "key,name\nm1,M-1グランプリ\n")
	e.write(t, "editions.csv", "comp,year\nm1,2019\n")
	e.write(t, "final_results.csv", "comp,year,comedian_name,rank\nm1,2019,ミルクボーイ,優勝\n")
	return e
}

func (e *cliEnv) write(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.seedDir, name), []byte(body), 0o644))
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImport_ResetPublishes(t *testing.T) {
	e := newCLIEnv(t)
	out, err := execute()
	require.NoError(t, err)
	require.Contains(t, out, "final_results.csv")
	require.FileExists(t, e.dbPath)
}

func TestImport_NoResetDoesNothing(t *testing.T) {
	e := newCLIEnv(t)
	out, err := execute("--no-reset")
	require.NoError(t, err)
	require.Contains(t, out, "skip: --no-reset")
	require.NoFileExists(t, e.dbPath)
}

func TestImport_FlagConflictIsUsageError(t *testing.T) {
	newCLIEnv(t)
	_, err := execute("--no-reset", "--append")
	require.Error(t, err)
	require.Equal(t, exitUsage, exitCode(err))
}

func TestImport_MissingEditionIsValidationError(t *testing.T) {
	e := newCLIEnv(t)
	e.write(t, "final_results.csv", "comp,year,comedian_name,rank\nm1,2030,ミルクボーイ,優勝\n")
	_, err := execute()
	require.Error(t, err)
	require.Equal(t, exitValidation, exitCode(err))
	require.ErrorIs(t, err, service.ErrEditionNotFound)
	require.NoFileExists(t, e.dbPath)
}

func TestImport_UnknownRankTable(t *testing.T) {
	newCLIEnv(t)
	t.Setenv("ARCHIVE_RANK_TABLE", "v999")
	_, err := execute()
	require.Equal(t, exitUsage, exitCode(err))
}

func TestImportExitCode(t *testing.T) {
	require.Equal(t, exitValidation, importExitCode(fmt.Errorf("x: %w", &schema.InvalidColumnError{Name: "A"})))
	require.Equal(t, exitValidation, importExitCode(&service.KindConflictError{}))
	require.Equal(t, exitValidation, importExitCode(&service.RowError{Table: "t", Line: 2, Err: service.ErrInvalidValue}))
	require.Equal(t, exitDB, importExitCode(errors.New("disk I/O error")))
	require.Equal(t, 1, exitCode(errors.New("plain")))
	require.Equal(t, exitOK, exitCode(nil))
}

func TestConvertScoresCmd(t *testing.T) {
	e := newCLIEnv(t)
	e.write(t, "scores_wide.csv", "comp,year,round_no,comedian_name,comedian_number,seat_1,seat_2\nm1,2019,1,ミルクボーイ,,97,96点\n")
	_, err := execute("convert-scores")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(e.seedDir, "judge_scores.csv"))
	require.NoError(t, err)
	require.Equal(t, "comp,year,round_no,comedian_name,comedian_number,seat_no,score\n"+
		"m1,2019,1,ミルクボーイ,,1,97\n"+
		"m1,2019,1,ミルクボーイ,,2,96\n", string(b))

	_, err = execute("convert-scores", "--in", filepath.Join(e.seedDir, "missing.csv"))
	require.Equal(t, exitUsage, exitCode(err))
}

func TestSyncComediansCmd(t *testing.T) {
	e := newCLIEnv(t)
	e.write(t, "comedians.csv", "name,note\n和牛,\n")

	out, err := execute("sync-comedians", "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, "inserted=1")
	b, err := os.ReadFile(filepath.Join(e.seedDir, "comedians.csv"))
	require.NoError(t, err)
	require.Equal(t, "name,note\n和牛,\n", string(b))

	_, err = execute("sync-comedians")
	require.NoError(t, err)
	b, err = os.ReadFile(filepath.Join(e.seedDir, "comedians.csv"))
	require.NoError(t, err)
	require.Equal(t, "name,note,reading,kind,birth_date,formed_date\n和牛,,,,,\nミルクボーイ,,みるくぼーい,,,\n", string(b))
}

// testChdir 等价于 Go 1.24 的 t.Chdir：切换工作目录并在测试结束时恢复。
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

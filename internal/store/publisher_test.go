package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"OwaraiArchive/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func addCompetition(key string) BuildFunc {
	return func(ctx context.Context, st *Staging) error {
		return st.DB().WithContext(ctx).Create(&model.Competition{Key: key, Name: key}).Error
	}
}

func competitionKeys(t *testing.T, path string) []string {
	t.Helper()
	pub, err := OpenPublished(path, quietLogger())
	require.NoError(t, err)
	defer pub.Close()

	var keys []string
	require.NoError(t, pub.DB().Model(&model.Competition{}).Order("key").Pluck("key", &keys).Error)
	return keys
}

func TestPublish_ResetReplacesStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "awards.sqlite")
	p := NewPublisher(dbPath, "", quietLogger())
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, ModeReset, addCompetition("m1")))
	require.Equal(t, []string{"m1"}, competitionKeys(t, dbPath))

	require.NoError(t, p.Publish(ctx, ModeReset, addCompetition("koc")))
	require.Equal(t, []string{"koc"}, competitionKeys(t, dbPath))

	require.NoFileExists(t, dbPath+".tmp")
}

func TestPublish_AppendKeepsPublishedRows(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "awards.sqlite")
	p := NewPublisher(dbPath, filepath.Join(dir, "awards.tmp.sqlite"), quietLogger())
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, ModeReset, addCompetition("m1")))
	require.NoError(t, p.Publish(ctx, ModeAppend, addCompetition("koc")))
	require.Equal(t, []string{"koc", "m1"}, competitionKeys(t, dbPath))
}

func TestPublish_FailureLeavesPublishedUntouched(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "awards.sqlite")
	tmpPath := filepath.Join(dir, "awards.tmp.sqlite")
	p := NewPublisher(dbPath, tmpPath, quietLogger())
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, ModeReset, addCompetition("m1")))
	before, err := os.ReadFile(dbPath)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = p.Publish(ctx, ModeReset, func(ctx context.Context, st *Staging) error {
		if err := addCompetition("r1")(ctx, st); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.NoFileExists(t, tmpPath)
	require.NoFileExists(t, tmpPath+"-journal")
}

func TestPublish_RemovesStaleStaging(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "awards.sqlite")
	tmpPath := filepath.Join(dir, "awards.tmp.sqlite")
	require.NoError(t, os.WriteFile(tmpPath, []byte("not a database"), 0o644))

	p := NewPublisher(dbPath, tmpPath, quietLogger())
	require.NoError(t, p.Publish(context.Background(), ModeReset, addCompetition("m1")))
	require.Equal(t, []string{"m1"}, competitionKeys(t, dbPath))
}

func TestOpenPublished_Missing(t *testing.T) {
	_, err := OpenPublished(filepath.Join(t.TempDir(), "none.sqlite"), quietLogger())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenPublished_ReadOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "awards.sqlite")
	p := NewPublisher(dbPath, "", quietLogger())
	require.NoError(t, p.Publish(context.Background(), ModeReset, addCompetition("m1")))

	pub, err := OpenPublished(dbPath, quietLogger())
	require.NoError(t, err)
	defer pub.Close()
	err = pub.DB().Create(&model.Competition{Key: "x", Name: "x"}).Error
	require.Error(t, err)
}

func schemaRows(t *testing.T, path string) []string {
	t.Helper()
	pub, err := OpenPublished(path, quietLogger())
	require.NoError(t, err)
	defer pub.Close()
	require.Equal(t, path, pub.Path())

	var rows []string
	require.NoError(t, pub.DB().Raw("SELECT type || ' ' || name || ' ' || IFNULL(sql, '') FROM sqlite_master ORDER BY rowid").Scan(&rows).Error)
	return rows
}

func TestMigrate_SchemaIsStable(t *testing.T) {
	ctx := context.Background()
	var first []string
	for i := 0; i < 3; i++ {
		dbPath := filepath.Join(t.TempDir(), "awards.sqlite")
		require.NoError(t, NewPublisher(dbPath, "", quietLogger()).Publish(ctx, ModeReset, addCompetition("m1")))
		rows := schemaRows(t, dbPath)
		if first == nil {
			first = rows
			continue
		}
		require.Equal(t, first, rows, "run %d", i+1)
	}
	require.Contains(t, first, "index uq_final_results_edition_comedian CREATE UNIQUE INDEX uq_final_results_edition_comedian ON final_results(edition_id, comedian_id)")
}

func TestMigrate_ForeignKeysEnforced(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "awards.sqlite")
	p := NewPublisher(dbPath, "", quietLogger())
	err := p.Publish(context.Background(), ModeReset, func(ctx context.Context, st *Staging) error {
		return st.DB().WithContext(ctx).Exec("INSERT INTO editions (competition_id, year) VALUES (42, 2019)").Error
	})
	require.Error(t, err)
	require.NoFileExists(t, dbPath)
}

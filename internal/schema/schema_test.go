package schema

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"OwaraiArchive/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestExtraColumns(t *testing.T) {
	cols, err := ExtraColumns([]string{"comp", "year", "comedian_name", "rank", "first_order", "catchphrase", "first_order"})
	require.NoError(t, err)
	require.Equal(t, []string{"first_order", "catchphrase"}, cols)

	for _, bad := range []string{"First", "a-b", "x;DROP TABLE comedians", "", "rank sort", "id", "edition_id"} {
		_, err := ExtraColumns([]string{"comp", bad})
		var ice *InvalidColumnError
		require.True(t, errors.As(err, &ice), "header %q", bad)
		require.Equal(t, bad, ice.Name)
	}
}

func TestInferType(t *testing.T) {
	require.Equal(t, TypeInteger, InferType([]string{"1", "-2", "30"}))
	require.Equal(t, TypeReal, InferType([]string{"1", "2.5"}))
	require.Equal(t, TypeText, InferType([]string{"1", "A"}))
	require.Equal(t, TypeText, InferType(nil))
}

func TestPlan_PinsFirstGroupAndCarriesPrevious(t *testing.T) {
	header := []string{"comp", "year", "comedian_name", "rank", "first_order", "first_title", "first_group"}
	samples := map[string][]string{
		"first_order": {"1", "2"},
		"first_title": {"ネタ"},
		"first_group": {"A"},
	}
	prev := []Column{{Name: "first_order", Type: TypeInteger}, {Name: "old_note", Type: TypeText}}

	cols, err := Plan(header, func(c string) []string { return samples[c] }, prev)
	require.NoError(t, err)
	require.Equal(t, []Column{
		{Name: "first_group", Type: TypeText},
		{Name: "first_order", Type: TypeInteger},
		{Name: "first_title", Type: TypeText},
		{Name: "old_note", Type: TypeText, Carried: true},
	}, cols)
}

func TestBuildMeta(t *testing.T) {
	cols := []Column{
		{Name: "catchphrase", Type: TypeText},
		{Name: "first_group", Type: TypeText},
		{Name: "first_order", Type: TypeInteger},
		{Name: "first_title", Type: TypeText},
		{Name: "first_movie", Type: TypeText},
		{Name: "second_title", Type: TypeText},
		{Name: "memo", Type: TypeText},
	}
	extra := Overrides{"memo": {Label: "備考", PrefOrder: pref(20)}}
	meta := BuildMeta(cols, DefaultOverrides().Merge(extra))
	require.Len(t, meta, len(cols))

	byKey := map[string]int{}
	for i, m := range meta {
		byKey[m.Key] = i
	}

	catch := meta[byKey["catchphrase"]]
	require.Equal(t, "キャッチコピー", catch.Label)
	require.True(t, catch.IsMultiline)
	require.Equal(t, ClassCatch, catch.ColClass)
	require.Equal(t, 1, *catch.PrefOrder)

	require.True(t, meta[byKey["first_group"]].IsHidden)
	require.Equal(t, ClassOrder, meta[byKey["first_order"]].ColClass)

	title := meta[byKey["first_title"]]
	require.Equal(t, ClassTitle, title.ColClass)
	require.NotNil(t, title.RelatedKey)
	require.Equal(t, "first_movie", *title.RelatedKey)

	movie := meta[byKey["first_movie"]]
	require.True(t, movie.IsHidden)
	require.Equal(t, ClassMovie, movie.ColClass)

	require.Nil(t, meta[byKey["second_title"]].RelatedKey)

	memo := meta[byKey["memo"]]
	require.Equal(t, "備考", memo.Label)
	require.Equal(t, 20, *memo.PrefOrder)
	require.Equal(t, "", memo.ColClass)
}

func TestBuilder_RejectsUnsafeIdentifiers(t *testing.T) {
	_, err := AddColumnSQL(Column{Name: `x" TEXT; --`, Type: TypeText})
	require.Error(t, err)
	_, err = AddColumnSQL(Column{Name: "x", Type: "BLOB); DROP TABLE y; --"})
	require.Error(t, err)
	_, err = UpsertResultSQL([]string{"ok", "NOT OK"})
	require.Error(t, err)
	_, err = SelectExtrasSQL("fr", []string{"a b"})
	require.Error(t, err)
	_, err = UsedColumnSQL("1;")
	require.Error(t, err)
}

func TestBuilder_UpsertResultSQL(t *testing.T) {
	q, err := UpsertResultSQL([]string{"first_order"})
	require.NoError(t, err)
	require.Equal(t,
		`INSERT INTO final_results (edition_id, comedian_id, rank, rank_sort, "first_order") VALUES (?, ?, ?, ?, ?) `+
			`ON CONFLICT(edition_id, comedian_id) DO UPDATE SET rank=excluded.rank, rank_sort=excluded.rank_sort, "first_order"=excluded."first_order"`,
		q)
}

func TestApply_AddsOnlyMissingColumns(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	dbPath := filepath.Join(t.TempDir(), "awards.sqlite")
	p := store.NewPublisher(dbPath, "", log)

	err := p.Publish(context.Background(), store.ModeReset, func(ctx context.Context, st *store.Staging) error {
		cols := []Column{{Name: "first_order", Type: TypeInteger}, {Name: "catchphrase", Type: TypeText}}
		added, err := Apply(ctx, st.DB(), cols)
		require.NoError(t, err)
		require.Len(t, added, 2)

		added, err = Apply(ctx, st.DB(), append(cols, Column{Name: "score", Type: TypeReal}))
		require.NoError(t, err)
		require.Equal(t, []Column{{Name: "score", Type: TypeReal}}, added)

		existing, err := ExistingColumns(ctx, st.DB())
		require.NoError(t, err)
		require.Equal(t, []Column{
			{Name: "first_order", Type: TypeInteger},
			{Name: "catchphrase", Type: TypeText},
			{Name: "score", Type: TypeReal},
		}, existing)
		return nil
	})
	require.NoError(t, err)
}

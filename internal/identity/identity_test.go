package identity

import (
	"context"
	"testing"

	"OwaraiArchive/internal/model"

	"github.com/stretchr/testify/require"
)

func TestComedianID_Deterministic(t *testing.T) {
	a := ComedianID("ミルクボーイ", "")
	b := ComedianID("  ﾐﾙｸﾎﾞｰｲ ", "")
	require.Equal(t, a, b)
	require.Len(t, a, IDLength)

	require.NotEqual(t, a, ComedianID("ミルクボーイ", "2"))
	require.NotEqual(t, ComedianID("和牛", ""), ComedianID("和牛", "2"))
	require.Equal(t, ComedianID("和牛", "2"), ComedianID("和牛", " ２ "))
}

func TestComedianID_NoSeparatorWithoutDisambiguator(t *testing.T) {
	// "A_1" without disambiguator and "A" with disambiguator "1" hash the same input on purpose
	require.Equal(t, ComedianID("A_1", ""), ComedianID("A", "1"))
	require.Equal(t, digest("A"), ComedianID("A", ""))
}

func TestJudgeID(t *testing.T) {
	require.Equal(t, JudgeID("松本 人志"), JudgeID("松本　人志"))
	require.Equal(t, ComedianID("松本 人志", ""), JudgeID("松本 人志"))
}

type memStore struct {
	rows []*model.Comedian
}

func (m *memStore) FindByName(_ context.Context, name string, d *string) (*model.Comedian, error) {
	for _, c := range m.rows {
		if c.Name == name && NoteValue(c.Disambiguator) == NoteValue(d) && (c.Disambiguator == nil) == (d == nil) {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memStore) HasUndistinguished(_ context.Context, name string) (bool, error) {
	for _, c := range m.rows {
		if c.Name == name && c.Disambiguator == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListDisambiguators(_ context.Context, name string) ([]string, error) {
	var out []string
	for _, c := range m.rows {
		if c.Name == name && c.Disambiguator != nil {
			out = append(out, *c.Disambiguator)
		}
	}
	return out, nil
}

func (m *memStore) Upsert(_ context.Context, c *model.Comedian) error {
	for _, r := range m.rows {
		if r.ID == c.ID {
			return nil
		}
	}
	m.rows = append(m.rows, c)
	return nil
}

// lookup misses but the undistinguished slot is taken: the "claimed slot" branch
type missingLookupStore struct{ memStore }

func (m *missingLookupStore) FindByName(context.Context, string, *string) (*model.Comedian, error) {
	return nil, nil
}

func TestResolver_CreatesAndReuses(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	r := NewResolver(store)

	c1, created, err := r.ResolveOrCreate(ctx, " ミルクボーイ ", nil)
	require.NoError(t, err)
	require.True(t, created)
	require.Nil(t, c1.Disambiguator)
	require.Equal(t, ComedianID("ミルクボーイ", ""), c1.ID)
	require.NotNil(t, c1.Reading)
	require.Equal(t, "みるくぼーい", *c1.Reading)

	c2, created, err := r.ResolveOrCreate(ctx, "ミルクボーイ", nil)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, c1.ID, c2.ID)

	blank := "  "
	c3, _, err := r.ResolveOrCreate(ctx, "ミルクボーイ", &blank)
	require.NoError(t, err)
	require.Equal(t, c1.ID, c3.ID)
}

func TestResolver_ExplicitDisambiguator(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(&memStore{})
	note := "大阪"
	c, created, err := r.ResolveOrCreate(ctx, "和牛", &note)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "大阪", *c.Disambiguator)
	require.Nil(t, c.Reading)
	require.Equal(t, ComedianID("和牛", "大阪"), c.ID)
}

func TestResolver_AssignsNextNumberWhenSlotTaken(t *testing.T) {
	ctx := context.Background()
	three := "3"
	text := "東京"
	store := &missingLookupStore{memStore{rows: []*model.Comedian{
		{ID: ComedianID("和牛", ""), Name: "和牛"},
		{ID: ComedianID("和牛", "東京"), Name: "和牛", Disambiguator: &text},
	}}}
	r := NewResolver(store)

	c, created, err := r.ResolveOrCreate(ctx, "和牛", nil)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "2", *c.Disambiguator)

	store.rows = append(store.rows, &model.Comedian{ID: ComedianID("和牛", "3"), Name: "和牛", Disambiguator: &three})
	c, _, err = r.ResolveOrCreate(ctx, "和牛", nil)
	require.NoError(t, err)
	require.Equal(t, "4", *c.Disambiguator)
}

func TestResolver_EmptyName(t *testing.T) {
	_, _, err := NewResolver(&memStore{}).ResolveOrCreate(context.Background(), "   ", nil)
	require.Error(t, err)
}

package activity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*3600)

func TestComposeDefaultFilterHasNoPredicates(t *testing.T) {
	c := NewComposer(0, jakarta)
	q, err := c.Compose(DefaultFilter(), nil)
	require.NoError(t, err)
	require.Empty(t, q.Predicates)
	require.Equal(t, DefaultPageSize, q.Limit)
	require.Nil(t, q.After)
}

func TestComposeAllFields(t *testing.T) {
	c := NewComposer(20, jakarta)
	after := &Cursor{Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ID: "x"}
	q, err := c.Compose(FilterState{
		Category:   "create",
		EntityType: " Berita ",
		ActorID:    " admin-1 ",
		DateFrom:   "2024-05-01",
		DateTo:     "2024-05-03",
		Search:     "ignored",
	}, after)
	require.NoError(t, err)
	require.Same(t, after, q.After)
	require.Equal(t, []Predicate{
		{Field: FieldCategory, Op: OpEq, Value: "CREATE"},
		{Field: FieldEntityType, Op: OpEq, Value: "berita"},
		{Field: FieldActorID, Op: OpEq, Value: "admin-1"},
		{Field: FieldTimestamp, Op: OpGte, Value: time.Date(2024, 5, 1, 0, 0, 0, 0, jakarta)},
		{Field: FieldTimestamp, Op: OpLte, Value: time.Date(2024, 5, 3, 23, 59, 59, 999000000, jakarta)},
	}, q.Predicates)
}

func TestComposeSingleDayRange(t *testing.T) {
	c := NewComposer(20, jakarta)
	preds, err := c.Predicates(FilterState{DateFrom: "2024-05-02", DateTo: "2024-05-02"})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	from := preds[0].Value.(time.Time)
	to := preds[1].Value.(time.Time)
	require.True(t, to.After(from))
	require.Equal(t, 2, from.Day())
	require.Equal(t, 2, to.Day())
}

func TestComposeRejectsInvalidFilters(t *testing.T) {
	c := NewComposer(20, jakarta)
	cases := map[string]FilterState{
		"unknown category": {Category: "PUBLISH"},
		"unknown entity":   {EntityType: "rahasia"},
		"bad from":         {DateFrom: "01/05/2024"},
		"bad to":           {DateTo: "2024-13-01"},
		"reversed range":   {DateFrom: "2024-05-03", DateTo: "2024-05-01"},
	}
	for name, filter := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Compose(filter, nil)
			require.True(t, errors.Is(err, ErrInvalidFilter), "got %v", err)
		})
	}
}

func TestFilterApplyDetectsQueryChanges(t *testing.T) {
	base := DefaultFilter()
	search := "berita"
	next, changed := base.Apply(FilterPatch{Search: &search})
	require.False(t, changed)
	require.Equal(t, "berita", next.Search)

	cat := CategoryDelete
	next, changed = next.Apply(FilterPatch{Category: &cat})
	require.True(t, changed)
	require.Equal(t, CategoryDelete, next.Category)
	require.Equal(t, "berita", next.Search)

	same := Category("delete")
	_, changed = next.Apply(FilterPatch{Category: &same})
	require.False(t, changed)

	empty := Category("")
	next, changed = next.Apply(FilterPatch{Category: &empty})
	require.True(t, changed)
	require.Equal(t, CategoryAll, next.Category)
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{Timestamp: time.Date(2024, 5, 1, 10, 30, 0, 123456789, jakarta), ID: "7b0c"}
	decoded, err := DecodeCursor(c.Encode())
	require.NoError(t, err)
	require.True(t, decoded.Timestamp.Equal(c.Timestamp))
	require.Equal(t, "7b0c", decoded.ID)

	none, err := DecodeCursor("  ")
	require.NoError(t, err)
	require.Nil(t, none)

	for _, bad := range []string{"%%%", "bm8tc2VwYXJhdG9y", "eHxpZA"} {
		_, err := DecodeCursor(bad)
		require.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}

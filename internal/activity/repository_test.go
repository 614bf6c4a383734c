package activity

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestBuildWhereEmpty(t *testing.T) {
	where, args, err := buildWhere(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "TRUE", where)
	require.Empty(t, args)
}

func TestBuildWhereWithCursor(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	after := &Cursor{Timestamp: from.Add(time.Hour), ID: "0f8fad5b-d9cb-469f-a165-70867728950e"}
	where, args, err := buildWhere([]Predicate{
		{Field: FieldCategory, Op: OpEq, Value: "UPDATE"},
		{Field: FieldTimestamp, Op: OpGte, Value: from},
	}, after)
	require.NoError(t, err)
	require.Equal(t, "category = $1 AND occurred_at >= $2 AND (occurred_at, id) < ($3, $4::uuid)", where)
	require.Equal(t, []any{"UPDATE", from, after.Timestamp, after.ID}, args)
}

func TestBuildWhereRejectsUnsupported(t *testing.T) {
	cases := [][]Predicate{
		{{Field: "description", Op: OpEq, Value: "x"}},
		{{Field: FieldCategory, Op: OpGte, Value: "x"}},
		{{Field: FieldTimestamp, Op: OpEq, Value: time.Now()}},
		{{Field: FieldTimestamp, Op: OpGte, Value: "2024-05-01"}},
	}
	for _, preds := range cases {
		_, _, err := buildWhere(preds, nil)
		require.ErrorIs(t, err, ErrUnsupportedQuery)
		require.ErrorIs(t, err, ErrInvalidFilter)
	}
}

func TestMapPgError(t *testing.T) {
	require.NoError(t, mapPgError(nil))
	err := mapPgError(&pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"})
	require.ErrorIs(t, err, ErrInvalidCursor)

	other := errors.New("boom")
	require.Same(t, other, mapPgError(other))
}

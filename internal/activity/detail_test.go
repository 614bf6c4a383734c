package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInspectWithoutDetail(t *testing.T) {
	view := Inspect(LogEntry{ID: "1", ActorID: "sekdes", Category: CategoryLogin}, time.UTC)
	require.False(t, view.HasDetail)
	require.Equal(t, NoDetailMessage, view.Message)
	require.Empty(t, view.Fields)
	require.Equal(t, "Masuk", view.Row.CategoryLabel)
	require.Equal(t, EmptyDisplay, view.Row.Time)
}

func TestInspectNestedDetail(t *testing.T) {
	entry := LogEntry{
		ID:       "2",
		Category: CategoryUpdate,
		Detail: Detail{
			"judul": "Musdes",
			"perubahan": map[string]any{
				"status": "terbit",
				"lama":   nil,
			},
			"jumlah": float64(3),
			"tags":   []any{"a", "b"},
		},
	}
	view := Inspect(entry, time.UTC)
	require.True(t, view.HasDetail)
	require.Equal(t, []DetailField{
		{Key: "judul", Value: "Musdes"},
		{Key: "jumlah", Value: "3"},
		{Key: "perubahan", Children: []DetailField{
			{Key: "lama", Value: EmptyDisplay},
			{Key: "status", Value: "terbit"},
		}},
		{Key: "tags", Value: `["a","b"]`},
	}, view.Fields)
}

func TestToRowMalformedEntry(t *testing.T) {
	row := ToRow(LogEntry{ID: "x", Category: "ARSIP", EntityType: "surat_keluar"}, time.UTC)
	require.Equal(t, EmptyDisplay, row.Actor)
	require.Equal(t, EmptyDisplay, row.Description)
	require.Equal(t, EmptyDisplay, row.EntityID)
	require.Equal(t, EmptyDisplay, row.Time)
	require.Equal(t, "Arsip", row.CategoryLabel)
	require.Equal(t, "Surat Keluar", row.EntityLabel)
	require.False(t, row.HasDetail)
}

func TestFormatTimestampUsesLocation(t *testing.T) {
	ts := time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC)
	require.Equal(t, "02 May 2024 00:30", FormatTimestamp(ts, jakarta))
}

func TestInspectNumbersKeepPlainForm(t *testing.T) {
	entry := LogEntry{
		ID:       "3",
		Category: CategoryCreate,
		Detail: Detail{
			"news_id": float64(12345678),
			"views":   float64(1000000),
			"rating":  4.5,
			"kode":    json.Number("900719925474099"),
		},
	}
	view := Inspect(entry, time.UTC)
	require.Equal(t, []DetailField{
		{Key: "kode", Value: "900719925474099"},
		{Key: "news_id", Value: "12345678"},
		{Key: "rating", Value: "4.5"},
		{Key: "views", Value: "1000000"},
	}, view.Fields)
}

package activityhttp

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/desa-digital/panel-desa/internal/activity"
)

var exportHeader = []string{"Waktu", "Aktor", "Kategori", "Jenis Entitas", "ID Entitas", "Deskripsi", "Detail"}

// WriteEntriesCSV menulis entri log ke CSV dengan waktu dalam zona loc.
func WriteEntriesCSV(w io.Writer, entries []activity.LogEntry, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := activity.ToRow(e, loc)
		detail := ""
		if len(e.Detail) > 0 {
			raw, err := json.Marshal(e.Detail)
			if err != nil {
				return err
			}
			detail = string(raw)
		}
		if err := writer.Write([]string{
			exportTime(e.Timestamp, loc),
			row.Actor,
			row.CategoryLabel,
			row.EntityLabel,
			row.EntityID,
			row.Description,
			detail,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	entries, err := h.service.Export(r.Context(), filter, h.cfg.ExportMaxRows)
	if err != nil {
		h.respondError(w, "export activity log", err)
		return
	}
	loc := h.location()
	var buf bytes.Buffer
	if err := WriteEntriesCSV(&buf, entries, loc); err != nil {
		h.respondError(w, "encode activity csv", err)
		return
	}
	filename := "log-aktivitas-" + h.now().In(loc).Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("write activity csv", slog.Any("error", err))
	}
}

func exportTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return activity.EmptyDisplay
	}
	return t.In(loc).Format(time.RFC3339)
}

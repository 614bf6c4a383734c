package activity

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// NoDetailMessage ditampilkan bila entri tidak memiliki payload detail.
const NoDetailMessage = "Tidak ada detail tambahan"

// DetailField adalah satu pasangan kunci/nilai pada tampilan detail.
// Map bersarang dirender sebagai Children.
type DetailField struct {
	Key      string        `json:"key"`
	Value    string        `json:"value,omitempty"`
	Children []DetailField `json:"children,omitempty"`
}

// DetailView adalah tampilan baca-saja dari satu entri terpilih.
type DetailView struct {
	Row       Row           `json:"row"`
	HasDetail bool          `json:"has_detail"`
	Message   string        `json:"message,omitempty"`
	Fields    []DetailField `json:"fields,omitempty"`
}

// Inspect menyusun tampilan detail. Tidak ada mutasi maupun efek samping.
func Inspect(e LogEntry, loc *time.Location) DetailView {
	view := DetailView{Row: ToRow(e, loc)}
	if len(e.Detail) == 0 {
		view.Message = NoDetailMessage
		return view
	}
	view.HasDetail = true
	view.Fields = detailFields(e.Detail)
	return view
}

func detailFields(m map[string]any) []DetailField {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]DetailField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, detailField(k, m[k]))
	}
	return fields
}

func detailField(key string, v any) DetailField {
	switch val := v.(type) {
	case nil:
		return DetailField{Key: key, Value: EmptyDisplay}
	case map[string]any:
		if len(val) == 0 {
			return DetailField{Key: key, Value: EmptyDisplay}
		}
		return DetailField{Key: key, Children: detailFields(val)}
	case Detail:
		return detailField(key, map[string]any(val))
	case string:
		if val == "" {
			return DetailField{Key: key, Value: EmptyDisplay}
		}
		return DetailField{Key: key, Value: val}
	case float64:
		return DetailField{Key: key, Value: strconv.FormatFloat(val, 'f', -1, 64)}
	case float32:
		return DetailField{Key: key, Value: strconv.FormatFloat(float64(val), 'f', -1, 32)}
	case bool, int, int32, int64, json.Number:
		return DetailField{Key: key, Value: fmt.Sprint(val)}
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return DetailField{Key: key, Value: fmt.Sprintf("%v", val)}
		}
		return DetailField{Key: key, Value: string(raw)}
	}
}

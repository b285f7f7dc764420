// Package output provides output formatting for TableSync CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// sessionColumns fixes the display order for the fields the server returns
// about sessions. Wide-only columns render with --wide.
var sessionColumns = []struct {
	key  string
	wide bool
}{
	{key: "session_id"},
	{key: "version"},
	{key: "created_at", wide: true},
}

// timeKeys holds epoch-millisecond fields rendered as timestamps.
var timeKeys = map[string]bool{
	"created_at": true,
}

// TableFormatter renders session documents as aligned columns. Payloads it
// has no column layout for fall back to indented JSON.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format writes data to w. Slices of documents become one row per
// document; a single document becomes a KEY/VALUE listing.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	switch v := data.(type) {
	case []map[string]any:
		return f.renderRows(w, v)
	case map[string]any:
		return f.renderDoc(w, v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// columnsFor orders the keys appearing in rows: known session columns
// first, anything unexpected after them alphabetically.
func (f *TableFormatter) columnsFor(rows []map[string]any) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			present[k] = true
		}
	}

	var cols []string
	for _, c := range sessionColumns {
		if c.wide && !f.Wide {
			delete(present, c.key)
			continue
		}
		if present[c.key] {
			cols = append(cols, c.key)
			delete(present, c.key)
		}
	}
	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

func (f *TableFormatter) renderRows(w io.Writer, rows []map[string]any) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no sessions")
		return err
	}

	cols := f.columnsFor(rows)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		headers := make([]string, len(cols))
		for i, c := range cols {
			headers[i] = strings.ToUpper(c)
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatCell(c, row[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func (f *TableFormatter) renderDoc(w io.Writer, doc map[string]any) error {
	cols := f.columnsFor([]map[string]any{doc})
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		fmt.Fprintln(tw, "KEY\tVALUE")
	}
	for _, c := range cols {
		fmt.Fprintln(tw, c+"\t"+formatCell(c, doc[c]))
	}
	return tw.Flush()
}

// formatCell renders one decoded JSON value. Numbers arrive as float64.
func formatCell(key string, v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if val == "" {
			return "-"
		}
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	case float64:
		if timeKeys[key] {
			return time.UnixMilli(int64(val)).Format("2006-01-02 15:04:05")
		}
		if val == math.Trunc(val) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%.2f", val)
	case []any:
		if len(val) == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", len(val))
	case map[string]any:
		if len(val) == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// TableFormatter renders data as aligned columns.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
	// Color highlights well-known status values.
	Color bool
}

// Format renders data. Tables, slices, maps and structs are supported;
// anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	var table *Table
	switch t := data.(type) {
	case *Table:
		table = t
	case Table:
		table = &t
	default:
		var err error
		if table, err = f.toTable(data); err != nil {
			return (&JSONFormatter{}).Format(w, data)
		}
	}

	if table.Empty() {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	return table.render(w, f.NoHeaders, f.Color)
}

type column struct {
	header string
	index  []int
}

func (f *TableFormatter) toTable(data any) (*Table, error) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return &Table{}, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return f.sliceToTable(v)
	case reflect.Map:
		return mapToTable(v), nil
	case reflect.Struct:
		return f.structToTable(v), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

func (f *TableFormatter) sliceToTable(v reflect.Value) (*Table, error) {
	elemType := v.Type().Elem()
	for elemType.Kind() == reflect.Pointer {
		elemType = elemType.Elem()
	}

	if elemType.Kind() != reflect.Struct {
		t := &Table{Headers: []string{"VALUE"}}
		for i := 0; i < v.Len(); i++ {
			t.AddRow(formatValue(v.Index(i)))
		}
		return t, nil
	}

	cols := f.columns(elemType)
	t := &Table{}
	for _, c := range cols {
		t.Headers = append(t.Headers, c.header)
	}
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		for elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = formatValue(elem.FieldByIndex(c.index))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// columns lists the visible fields of a struct type.
func (f *TableFormatter) columns(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("table")
		if tag == "-" || (tag == "wide" && !f.Wide) {
			continue
		}
		cols = append(cols, column{
			header: strings.ToUpper(toSnakeCase(fieldName(field))),
			index:  field.Index,
		})
	}
	return cols
}

// structToTable renders one record as FIELD/VALUE rows.
func (f *TableFormatter) structToTable(v reflect.Value) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range f.columns(v.Type()) {
		t.AddRow(strings.ToLower(c.header), formatValue(v.FieldByIndex(c.index)))
	}
	return t
}

// mapToTable renders a map as KEY/VALUE rows sorted by key.
func mapToTable(v reflect.Value) *Table {
	t := &Table{Headers: []string{"KEY", "VALUE"}}
	iter := v.MapRange()
	for iter.Next() {
		t.AddRow(formatValue(iter.Key()), formatValue(iter.Value()))
	}
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i][0] < t.Rows[j][0] })
	return t
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("json"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		name = strings.TrimPrefix(name, "_")
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// formatValue renders a cell. Empty values print as "-".
func formatValue(v reflect.Value) string {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "-"
	}

	switch v.Type() {
	case timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Local().Format("2006-01-02 15:04")
	case durationType:
		return v.Interface().(time.Duration).Round(time.Millisecond).String()
	}

	if v.Type().Implements(stringerType) {
		if s := v.Interface().(fmt.Stringer).String(); s != "" {
			return s
		}
		return "-"
	}

	switch v.Kind() {
	case reflect.String:
		if s := v.String(); s != "" {
			return s
		}
		return "-"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v.Float()), "0"), ".")
	case reflect.Bool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		if v.Type().Elem().Kind() == reflect.String {
			parts := make([]string, v.Len())
			for i := range parts {
				parts[i] = v.Index(i).String()
			}
			return strings.Join(parts, ",")
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map, reflect.Struct:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return fmt.Sprintf("%v", v.Interface())
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// toSnakeCase converts camelCase to snake_case.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Table is pre-shaped tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Render writes the table without color.
func (t *Table) Render(w io.Writer) error {
	return t.render(w, false, false)
}

func (t *Table) render(w io.Writer, noHeaders, color bool) error {
	widths := make([]int, len(t.Headers))
	grow := func(row []string) {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}
	if !noHeaders {
		grow(t.Headers)
	}
	for _, row := range t.Rows {
		grow(row)
	}

	bw := bufio.NewWriter(w)
	line := func(row []string, paint bool) {
		for i, c := range row {
			cell := c
			if paint {
				cell = colorize(c)
			}
			if i == len(row)-1 {
				bw.WriteString(cell)
				break
			}
			bw.WriteString(cell)
			bw.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c)+2))
		}
		bw.WriteByte('\n')
	}
	if !noHeaders && len(t.Headers) > 0 {
		line(t.Headers, false)
	}
	for _, row := range t.Rows {
		line(row, color)
	}
	return bw.Flush()
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// colorize highlights status words. Padding is computed on the plain
// text, so the escape codes do not shift columns.
func colorize(cell string) string {
	switch cell {
	case "approved", "active", "present", "authenticated", "ok":
		return ansiGreen + cell + ansiReset
	case "rejected", "inactive", "absent", "failed", "error":
		return ansiRed + cell + ansiReset
	case "pending", "slow", "late":
		return ansiYellow + cell + ansiReset
	default:
		return cell
	}
}

package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type employeeRow struct {
	ID       string     `json:"_id" table:"id"`
	Name     string     `json:"firstName"`
	Status   string     `json:"status,omitempty"`
	Phone    string     `json:"phoneNumber,omitempty" table:"wide"`
	Secret   string     `json:"-" table:"-"`
	JoinDate *time.Time `json:"joinDate,omitempty"`
}

type ref struct{ id, name string }

func (r ref) String() string { return r.name }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, Options{}).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, Options{}).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	tf, ok := NewFormatter("unknown", Options{Wide: true, NoColor: true}).(*TableFormatter)
	if !ok {
		t.Fatal("expected TableFormatter")
	}
	if !tf.Wide || tf.Color {
		t.Errorf("options not applied: %+v", tf)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, employeeRow{ID: "e1", Name: "Ada"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"_id": "e1"`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestYAMLFormatter_UsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	err := (&YAMLFormatter{}).Format(&buf, []employeeRow{{ID: "e1", Name: "Ada", Secret: "hidden"}})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "_id: e1") || !strings.Contains(out, "firstName: Ada") {
		t.Errorf("output = %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("json:\"-\" fields must not appear")
	}
}

func TestTableFormatter_Slice(t *testing.T) {
	join := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	rows := []employeeRow{
		{ID: "e1", Name: "Ada", Status: "active", Phone: "555", JoinDate: &join},
		{ID: "e22", Name: "Grace"},
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "ID   FIRST_NAME  STATUS  JOIN_DATE" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "e1   Ada         active  2025-01-06" {
		t.Errorf("row = %q", lines[1])
	}
	if lines[2] != "e22  Grace       -       -" {
		t.Errorf("row = %q", lines[2])
	}
}

func TestTableFormatter_Wide(t *testing.T) {
	var buf bytes.Buffer
	(&TableFormatter{Wide: true}).Format(&buf, []employeeRow{{ID: "e1", Phone: "555-0100"}})
	if !strings.Contains(buf.String(), "PHONE_NUMBER") || !strings.Contains(buf.String(), "555-0100") {
		t.Errorf("wide column missing: %s", buf.String())
	}
}

func TestTableFormatter_ColorKeepsAlignment(t *testing.T) {
	rows := []employeeRow{{ID: "a", Status: "approved"}, {ID: "b", Status: "x"}}
	var plain, colored bytes.Buffer
	(&TableFormatter{}).Format(&plain, rows)
	(&TableFormatter{Color: true}).Format(&colored, rows)

	stripped := strings.NewReplacer(ansiGreen, "", ansiReset, "").Replace(colored.String())
	if stripped != plain.String() {
		t.Errorf("colored output misaligned:\n%q\n%q", stripped, plain.String())
	}
	if !strings.Contains(colored.String(), ansiGreen+"approved"+ansiReset) {
		t.Error("status not highlighted")
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	var buf bytes.Buffer
	(&TableFormatter{}).Format(&buf, &employeeRow{ID: "e1", Name: "Ada"})
	out := buf.String()
	if !strings.HasPrefix(out, "FIELD") || !strings.Contains(out, "first_name  Ada") {
		t.Errorf("output = %q", out)
	}
}

func TestTableFormatter_MapSorted(t *testing.T) {
	var buf bytes.Buffer
	(&TableFormatter{NoHeaders: true}).Format(&buf, map[string]int{"b": 2, "a": 1})
	if buf.String() != "a  1\nb  2\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	(&TableFormatter{}).Format(&buf, []employeeRow{})
	if strings.TrimSpace(buf.String()) != "No results." {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTableFormatter_ScalarFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	(&TableFormatter{}).Format(&buf, 42)
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTable_Render(t *testing.T) {
	tbl := &Table{Headers: []string{"KEY", "VALUE"}}
	tbl.AddRow("status", "authenticated")
	var buf bytes.Buffer
	if err := tbl.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "KEY     VALUE\nstatus  authenticated\n" {
		t.Errorf("Render() = %q", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	var buf bytes.Buffer
	tbl := struct {
		Ref     ref           `json:"ref"`
		Days    []string      `json:"days"`
		Hours   float64       `json:"hours"`
		Done    bool          `json:"done"`
		Latency time.Duration `json:"latency"`
	}{ref{"d1", "Ops"}, []string{"Mon", "Tue"}, 7.5, true, 1500 * time.Microsecond}
	(&TableFormatter{NoHeaders: true}).Format(&buf, tbl)

	for _, want := range []string{"Ops", "Mon,Tue", "7.5", "yes", "2ms"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

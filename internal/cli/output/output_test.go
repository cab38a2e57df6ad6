package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

type row struct {
	Seq     uint32    `json:"seq"`
	Path    string    `json:"path"`
	Size    int64     `json:"size" table:"bytes"`
	Digest  string    `json:"digest" table:"wide"`
	Secret  string    `table:"-"`
	SimTime float64   `json:"sim_time"`
	Created time.Time `json:"created"`
	hidden  int
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
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
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("json formatter expected")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("yaml formatter expected")
	}
	if f, ok := NewFormatter(FormatTable, true).(*TableFormatter); !ok || !f.Wide {
		t.Error("wide table formatter expected")
	}
}

func TestTableFormatter_Slice(t *testing.T) {
	rows := []*row{
		{Seq: 3, Path: "a.chkpt", Size: 2048, Digest: "abc", Secret: "x", SimTime: 1.5e-6, hidden: 1},
		nil,
		{Seq: 4, Path: "b.chkpt", Size: 10},
	}
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SEQ", "PATH", "SIZE", "SIM_TIME", "a.chkpt", "2.0 KB", "10 B", "1.5e-06"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, hidden := range []string{"DIGEST", "Secret", "SECRET", "HIDDEN"} {
		if strings.Contains(out, hidden) {
			t.Errorf("output should not contain %q:\n%s", hidden, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("got %d lines, want header + 2 rows", n)
	}

	buf.Reset()
	if err := (&TableFormatter{Wide: true, NoHeaders: true}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "abc") || strings.Contains(buf.String(), "SEQ") {
		t.Errorf("wide/no-headers output wrong:\n%s", buf.String())
	}
}

func TestTableFormatter_StructAndMap(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	if err := f.Format(&buf, row{Seq: 9, Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "FIELD") || !strings.Contains(out, "2024-01-02 03:04:05") || !strings.Contains(out, "path  ") {
		t.Errorf("struct output:\n%s", out)
	}

	buf.Reset()
	if err := f.Format(&buf, map[string]int{"b": 2, "a": 1}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "a") || !strings.HasPrefix(lines[2], "b") {
		t.Errorf("map output not sorted:\n%s", buf.String())
	}
}

func TestTableFormatter_Fallbacks(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	if err := f.Format(&buf, nil); err != nil || buf.Len() != 0 {
		t.Errorf("nil: err=%v out=%q", err, buf.String())
	}
	if err := f.Format(&buf, 42); err != nil || strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("scalar should fall back to JSON, got %q", buf.String())
	}
	buf.Reset()
	if err := f.Format(&buf, []string{"x", "y"}); err != nil || !strings.Contains(buf.String(), "VALUE") {
		t.Errorf("string slice: %q", buf.String())
	}
	buf.Reset()
	tbl := Table{}
	tbl.SetHeaders("A", "B")
	tbl.AddRow("1", "2")
	if err := f.Format(&buf, tbl); err != nil || !strings.Contains(buf.String(), "1  2") {
		t.Errorf("table value: %q", buf.String())
	}
}

func TestJSONAndYAML(t *testing.T) {
	data := struct {
		Seq  uint32 `json:"seq" yaml:"seq"`
		Path string `json:"path" yaml:"path"`
	}{7, "x.chkpt"}

	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"seq": 7`) {
		t.Errorf("json: %s", buf.String())
	}

	buf.Reset()
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "seq: 7\npath: x.chkpt\n" {
		t.Errorf("yaml: %q", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	s := "v"
	var nilPtr *string
	tests := []struct {
		in   any
		want string
	}{
		{"", "-"},
		{int16(-3), "-3"},
		{uint8(7), "7"},
		{0.25, "0.25"},
		{true, "true"},
		{[]int{}, "-"},
		{[]int{1, 2}, "[2 items]"},
		{map[string]int{"a": 1}, "{1 keys}"},
		{&s, "v"},
		{nilPtr, ""},
		{2 * time.Second, "2s"},
		{time.Time{}, "-"},
	}
	for _, tt := range tests {
		if got := formatValue(reflect.ValueOf(tt.in)); got != tt.want {
			t.Errorf("formatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := formatValue(reflect.Value{}); got != "" {
		t.Errorf("invalid value = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:           "0 B",
		1023:        "1023 B",
		1024:        "1.0 KB",
		1536:        "1.5 KB",
		1024 * 1024: "1.0 MB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := strings.ToUpper(toSnakeCase("SimTime")); got != "SIM_TIME" {
		t.Errorf("toSnakeCase = %q", got)
	}
	if got := toSnakeCase("seq"); got != "seq" {
		t.Errorf("toSnakeCase = %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(&buf, "steps", 10)
	p.Set(5)
	if !strings.Contains(buf.String(), " 50% (5/10)") {
		t.Errorf("half: %q", buf.String())
	}
	p.Set(20)
	if !strings.Contains(buf.String(), "100% (20/10)") {
		t.Errorf("overflow should clamp the bar: %q", buf.String())
	}
	p.Finish()
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Finish() should end the line")
	}

	buf.Reset()
	NewProgressBar(&buf, "steps", 0).Set(3)
	if buf.String() != "\rsteps 3" {
		t.Errorf("unbounded: %q", buf.String())
	}
}

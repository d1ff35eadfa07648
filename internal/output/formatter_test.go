package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json":     FormatJSON,
		"JSON":     FormatJSON,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"text":     FormatText,
		"":         FormatText,
		"bogus":    FormatText,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatterToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatal(err)
	}
	if f.Colored() {
		t.Error("file output must disable color")
	}

	if err := f.Output(map[string]int{"count": 3}); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON written: %v", err)
	}
	if decoded["count"] != 3 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Findings", []string{"Location", "Kind"}, [][]string{
		{"a.js:1:1", "REASSIGNED_CONSTANT"},
	}, nil, nil)

	var sb strings.Builder
	if err := table.RenderMarkdown(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"## Findings", "| Location | Kind |", "| a.js:1:1 | REASSIGNED_CONSTANT |"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderData(t *testing.T) {
	table := NewTable("", []string{"A", "B"}, [][]string{{"1", "2"}}, nil, nil)
	data, ok := table.RenderData().([]map[string]string)
	if !ok {
		t.Fatalf("RenderData type = %T", table.RenderData())
	}
	if data[0]["A"] != "1" || data[0]["B"] != "2" {
		t.Errorf("data = %v", data)
	}
}

func TestTableRenderText(t *testing.T) {
	table := NewTable("Diag", []string{"Loc", "Kind"}, [][]string{
		{"a.js:1:1", "EARLY_REFERENCE"},
	}, nil, nil)

	var sb strings.Builder
	if err := table.RenderText(&sb, false); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.Contains(out, "Diag") || !strings.Contains(out, "EARLY_REFERENCE") {
		t.Errorf("text output incomplete:\n%s", out)
	}
}

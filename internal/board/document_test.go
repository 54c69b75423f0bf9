package board

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFile_JSON(t *testing.T) {
	t.Parallel()

	b, err := LoadFile(filepath.Join("testdata", "de10-lite.json"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if b.Name != "DE10-Lite" {
		t.Fatalf("Name = %q, want DE10-Lite", b.Name)
	}
	if len(b.LEDs) != 3 || len(b.Switches) != 2 || len(b.Buttons) != 1 || len(b.OtherPins) != 8 {
		t.Fatalf("unexpected pin counts: leds=%d switches=%d buttons=%d other=%d",
			len(b.LEDs), len(b.Switches), len(b.Buttons), len(b.OtherPins))
	}
	if len(b.Digits) != 1 || b.Digits[0].P != "PIN_D15" {
		t.Fatalf("digits = %+v", b.Digits)
	}
	if b.Switches[0].Status {
		t.Fatal("SW0 should default to false")
	}
	if !b.Switches[1].Status {
		t.Fatal("SW1 declared status true in the document")
	}
}

func TestLoadFile_YAML(t *testing.T) {
	t.Parallel()

	b, err := LoadFile(filepath.Join("testdata", "minimal.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if b.Name != "Bench" {
		t.Fatalf("Name = %q, want Bench", b.Name)
	}
	if b.Digits[0].A != "LED1" || b.Digits[0].B != "" {
		t.Fatalf("digit = %+v", b.Digits[0])
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		format  Format
		wantSub string
	}{
		{name: "malformed json", doc: `{"leds": [`, format: FormatJSON, wantSub: "parse json"},
		{name: "malformed yaml", doc: "leds: [\n  - {", format: FormatYAML, wantSub: "parse yaml"},
		{name: "unknown format", doc: `{}`, format: Format("toml"), wantSub: "unknown format"},
		{
			name:    "unrelated json document",
			doc:     `{"name":"my-app","version":"1.0.0","dependencies":{}}`,
			format:  FormatJSON,
			wantSub: "unknown field",
		},
		{name: "trailing json content", doc: `{"boardName":"X"} garbage`, format: FormatJSON, wantSub: "after document"},
		{name: "second json document", doc: `{"boardName":"X"}{"boardName":"Y"}`, format: FormatJSON, wantSub: "after document"},
		{name: "null json", doc: `null`, format: FormatJSON, wantSub: "null"},
		{name: "unknown pin key", doc: `{"leds":[{"pinName":"L","pinId":"L1","colour":"red"}]}`, format: FormatJSON, wantSub: "unknown field"},
		{name: "pin without name", doc: `{"leds":[{"pinId":"L1"}]}`, format: FormatJSON, wantSub: "pin name is empty"},
		{name: "pin without id", doc: `{"leds":[{"pinName":"L"}]}`, format: FormatJSON, wantSub: "pin id is empty"},
		{name: "unknown yaml key", doc: "boardName: X\nversion: 2\n", format: FormatYAML, wantSub: "not found"},
		{name: "empty yaml", doc: "", format: FormatYAML, wantSub: "empty"},
		{name: "second yaml document", doc: "boardName: X\n---\nboardName: Y\n", format: FormatYAML, wantSub: "after document"},
		{
			name:    "unresolved segment",
			doc:     `{"leds":[{"pinName":"L","pinId":"L1"}],"sevseg":[{"a":"L1","b":"L9"}]}`,
			format:  FormatJSON,
			wantSub: `could not find pin "L9"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Parse([]byte(tt.doc), tt.format)
			if err == nil {
				t.Fatalf("Parse succeeded with %+v, want error", b)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error = %q, want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestParse_DefaultName(t *testing.T) {
	t.Parallel()

	b, err := Parse([]byte(`{"leds":[]}`), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.Name != DefaultName {
		t.Fatalf("Name = %q, want %q", b.Name, DefaultName)
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "board.json", want: FormatJSON},
		{path: "BOARD.JSON", want: FormatJSON},
		{path: "b.yaml", want: FormatYAML},
		{path: "b.yml", want: FormatYAML},
		{path: "b.txt", wantErr: true},
		{path: "noext", wantErr: true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("FormatFromPath(%q) = %q, want error", tt.path, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("FormatFromPath(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
		}
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want not-exist", err)
	}
}

func TestFirstPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                     "",
		"a.json":               "a.json",
		"a.json b.json":        "a.json",
		" , first.yml,second ": "first.yml",
	}
	for in, want := range tests {
		if got := FirstPath(in); got != want {
			t.Fatalf("FirstPath(%q) = %q, want %q", in, got, want)
		}
	}
}

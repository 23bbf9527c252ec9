package params

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/singleline/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if got := Default().FeederSpan(); got != 60 {
		t.Errorf("FeederSpan() = %v, want 60", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Parameters)
	}{
		{"zero cell width", func(p *Parameters) { p.CellWidth = 0 }},
		{"negative stack height", func(p *Parameters) { p.StackHeight = -1 }},
		{"bus padding wider than cell", func(p *Parameters) { p.HorizontalBusPadding = p.CellWidth }},
		{"unknown alignment", func(p *Parameters) { p.BusbarsAlignment = "CENTER" }},
		{"unknown substation layout", func(p *Parameters) { p.SubstationLayout = "diagonal" }},
		{"zero grid step", func(p *Parameters) { p.ZoneGridStep = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.modify(&p)
			err := p.Validate()
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Validate() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	doc := `
cell_width = 60
busbars_alignment = "MIDDLE"
components_on_busbars = ["DISCONNECTOR", "BREAKER"]

[voltage_level_padding]
top = 40
`
	p, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.CellWidth = 60
	want.BusbarsAlignment = AlignMiddle
	want.ComponentsOnBusbars = []string{"DISCONNECTOR", "BREAKER"}
	want.VoltageLevelPadding.Top = 40
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("cell_wdth = 60\n"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Decode() = %v, want INVALID_INPUT", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	p := Default()
	p.Stack = false
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("does/not/exist.toml")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadFile() = %v, want FILE_NOT_FOUND", err)
	}
}

package punch_test

import (
	"errors"
	"testing"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/punch"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		kind model.Kind
		want string
	}{
		{model.KindIn, "Entrada"},
		{model.KindStartBreak, "Intervalo"},
		{model.KindEndBreak, "Retorno do intervalo"},
		{model.KindOut, "Saída"},
		{"lunch", punch.UnknownLabel},
		{"", punch.UnknownLabel},
	}
	for _, tt := range tests {
		got := punch.Label(tt.kind)
		if got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	for _, k := range punch.Kinds() {
		got, err := punch.Parse(string(k))
		if err != nil {
			t.Fatalf("Parse(%q): %v", k, err)
		}
		if got != k {
			t.Errorf("Parse(%q) = %q", k, got)
		}
	}

	got, err := punch.Parse("  Start-Break ")
	if err != nil || got != model.KindStartBreak {
		t.Errorf("Parse with spaces/case = %q, %v", got, err)
	}

	_, err = punch.Parse("pause")
	if !errors.Is(err, punch.ErrUnknownKind) {
		t.Errorf("Parse(pause) error = %v, want ErrUnknownKind", err)
	}
}

func TestKindsAreValid(t *testing.T) {
	if len(punch.Kinds()) != 4 {
		t.Fatalf("Kinds() = %d kinds, want 4", len(punch.Kinds()))
	}
	for _, k := range punch.Kinds() {
		if !punch.Valid(k) {
			t.Errorf("Valid(%q) = false", k)
		}
	}
	if punch.Valid("break") {
		t.Error("Valid(break) = true")
	}
}

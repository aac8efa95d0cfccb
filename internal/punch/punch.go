package punch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Tiliavir/ponto/internal/model"
)

// ErrUnknownKind is returned by Parse for values outside the four punch kinds.
var ErrUnknownKind = errors.New("unknown punch kind")

// UnknownLabel is returned by Label for values outside the enumeration.
const UnknownLabel = "Unknown"

// Kinds returns the punch kinds in the order they are offered to the user.
func Kinds() []model.Kind {
	return []model.Kind{model.KindIn, model.KindStartBreak, model.KindEndBreak, model.KindOut}
}

// Valid reports whether k is one of the four punch kinds.
func Valid(k model.Kind) bool {
	switch k {
	case model.KindIn, model.KindStartBreak, model.KindEndBreak, model.KindOut:
		return true
	}
	return false
}

// Parse converts user or wire input into a Kind.
func Parse(s string) (model.Kind, error) {
	k := model.Kind(strings.ToLower(strings.TrimSpace(s)))
	if !Valid(k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Label returns the display label for a punch kind.
func Label(k model.Kind) string {
	switch k {
	case model.KindIn:
		return "Entrada"
	case model.KindStartBreak:
		return "Intervalo"
	case model.KindOut:
		return "Saída"
	case model.KindEndBreak:
		return "Retorno do intervalo"
	default:
		return UnknownLabel
	}
}

package punch

import "github.com/Tiliavir/ponto/internal/model"

// Verdict is the outcome of a live-transition check. Reason is set only when
// OK is false.
type Verdict struct {
	OK     bool
	Reason string
}

const (
	reasonNeedIn      = "Você precisa registrar uma entrada primeiro."
	reasonAfterIn     = "Após a entrada, registre intervalo ou saída."
	reasonOnBreak     = "Você já iniciou o intervalo. Registre o retorno do intervalo."
	reasonAfterEndBrk = "Após o retorno do intervalo, registre novo intervalo ou saída."
	reasonAfterOut    = "Após a saída, o próximo registro deve ser uma nova entrada."
	reasonInvalidKind = "Tipo de registro inválido."
)

var allowedNext = map[model.Kind][]model.Kind{
	"":                   {model.KindIn},
	model.KindIn:         {model.KindStartBreak, model.KindOut},
	model.KindStartBreak: {model.KindEndBreak},
	model.KindEndBreak:   {model.KindStartBreak, model.KindOut},
	model.KindOut:        {model.KindIn},
}

var rejectReason = map[model.Kind]string{
	"":                   reasonNeedIn,
	model.KindIn:         reasonAfterIn,
	model.KindStartBreak: reasonOnBreak,
	model.KindEndBreak:   reasonAfterEndBrk,
	model.KindOut:        reasonAfterOut,
}

// ValidateTransition checks whether next may be recorded after last, where an
// empty last means there is no punch yet today. It is a client-side guard only
// and says nothing about what other writers have stored meanwhile. A last kind
// outside the enumeration accepts anything.
func ValidateTransition(last, next model.Kind) Verdict {
	if !Valid(next) {
		return Verdict{Reason: reasonInvalidKind}
	}
	allowed, known := allowedNext[last]
	if !known {
		return Verdict{OK: true}
	}
	for _, k := range allowed {
		if k == next {
			return Verdict{OK: true}
		}
	}
	return Verdict{Reason: rejectReason[last]}
}

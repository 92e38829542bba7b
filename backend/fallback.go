package backend

import (
	"encoding/json"
	"errors"
)

// Fallback é uma política nomeada de degradação: quando a chamada falha com
// backend fora do ar (ou recurso inexistente, se configurado), a rota serve
// um payload estático em vez de propagar o erro.
type Fallback struct {
	// Name aparece nos logs quando a política é acionada.
	Name    string
	Payload json.RawMessage
	// OnNotFound estende a política para cobrir 404 do backend.
	OnNotFound bool
}

// Apply decide se o erro é coberto pela política. Devolve o payload de
// degradação e true quando cobre; caso contrário (nil, false) e o chamador
// propaga o erro original.
func (f *Fallback) Apply(err error) (json.RawMessage, bool) {
	if f == nil {
		return nil, false
	}
	var backendErr *Error
	if !errors.As(err, &backendErr) {
		return nil, false
	}
	switch backendErr.Kind {
	case KindServiceUnavailable:
		return f.Payload, true
	case KindNotFound:
		if f.OnNotFound {
			return f.Payload, true
		}
	}
	return nil, false
}

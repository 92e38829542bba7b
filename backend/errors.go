package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Kind classifica o desfecho de uma chamada ao backend. A classificação
// decide o status que o gateway devolve ao cliente.
type Kind string

const (
	// KindServiceUnavailable cobre falha de transporte: conexão recusada,
	// timeout, DNS. Vira 503.
	KindServiceUnavailable Kind = "service_unavailable"
	// KindNotFound é 404 do backend.
	KindNotFound Kind = "not_found"
	// KindBadRequest é 400 do backend (falha de validação).
	KindBadRequest Kind = "bad_request"
	// KindUpstreamUnauthorized é 401/403 do backend (status preservado).
	KindUpstreamUnauthorized Kind = "upstream_unauthorized"
	// KindUpstream é qualquer outro não-2xx. Vira 502.
	KindUpstream Kind = "upstream_error"
	// KindDecode é 2xx com payload que não decodifica.
	KindDecode Kind = "decode_error"
)

// Error é o erro classificado de uma chamada ao backend.
type Error struct {
	Service string
	Kind    Kind
	// Status é o código HTTP devolvido pelo backend (0 em falha de
	// transporte).
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s backend: %s: %s", e.Service, e.Kind, e.Detail)
}

// HTTPStatus mapeia a classificação para o status que o gateway responde.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUpstreamUnauthorized:
		return e.Status
	case KindDecode:
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

// classifyStatus converte um não-2xx do backend no erro correspondente.
// O detail vem do corpo {"detail": ...} do backend quando parseável.
func classifyStatus(service string, status int, body io.Reader) *Error {
	detail := upstreamDetail(service, body)

	switch {
	case status == http.StatusNotFound:
		return &Error{Service: service, Kind: KindNotFound, Status: status, Detail: detail}
	case status == http.StatusBadRequest:
		return &Error{Service: service, Kind: KindBadRequest, Status: status, Detail: detail}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{
			Service: service,
			Kind:    KindUpstreamUnauthorized,
			Status:  status,
			Detail:  fmt.Sprintf("Unauthorized access to %s service", service),
		}
	default:
		return &Error{
			Service: service,
			Kind:    KindUpstream,
			Status:  status,
			Detail:  fmt.Sprintf("%s service error: %s", service, detail),
		}
	}
}

func upstreamDetail(service string, body io.Reader) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return fmt.Sprintf("Error from %s service", service)
}

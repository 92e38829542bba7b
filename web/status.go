package web

import "net/http"

// StatusRecorder captura o status escrito pelo handler para uso em logs e
// métricas. OnWriteHeader (opcional) roda uma única vez, antes do status ir
// para o cliente: é a última chance de anexar headers (ex: X-Process-Time).
type StatusRecorder struct {
	http.ResponseWriter

	Status        int
	OnWriteHeader func(status int)

	wrote bool
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *StatusRecorder) WriteHeader(status int) {
	if r.wrote {
		return
	}
	r.wrote = true
	r.Status = status
	if r.OnWriteHeader != nil {
		r.OnWriteHeader(status)
	}
	r.ResponseWriter.WriteHeader(status)
}

// Written informa se o status já foi enviado ao cliente.
func (r *StatusRecorder) Written() bool { return r.wrote }

func (r *StatusRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

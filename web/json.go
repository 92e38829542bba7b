// Package web concentra os helpers de resposta JSON usados por todos os
// estágios do gateway. Todo erro sai no formato {"detail": "..."}.
package web

import (
	"encoding/json"
	"net/http"
)

// ErrorBody é o corpo padrão de erro do gateway.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// WriteJSON serializa v e escreve com o status informado.
// Falha de encode vira 500 de texto puro (último recurso).
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

// Error escreve o corpo de erro padrão {"detail": detail}.
func Error(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, ErrorBody{Detail: detail})
}

// WriteRaw escreve um payload JSON já serializado (ex: resposta do backend
// repassada como está).
func WriteRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

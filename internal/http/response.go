package http

import (
	"encoding/json"
	"net/http"
)

// Toda resposta da API usa o mesmo envelope: {data, error}. Sucesso carrega
// data e error nulo; falha carrega data nulo e o corpo de erro normalizado.

type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody segue a taxonomia de códigos consumida pelo frontend
// (AUTH, VALIDATION, NOT_FOUND, TRANSICAO_INVALIDA, ...).
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON responde sucesso no envelope padrão.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data})
}

// WriteError responde falha no envelope padrão.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

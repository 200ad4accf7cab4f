// response формирует единый JSON-конверт всех ответов сервиса:
//
//	{"success": bool, "message": string, "statusCode": int, "error"?: string, "data"?: object}
//
// Внутренние детали ошибок в конверт не попадают.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrInternal — текст поля error для всех 500.
const ErrInternal = "Internal server error"

// Envelope — конверт ответа.
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// Write пишет конверт; statusCode в теле всегда совпадает со статусом ответа.
func Write(w http.ResponseWriter, status int, env Envelope) {
	env.StatusCode = status
	env.Success = status < http.StatusBadRequest

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK — успешный ответ с необязательными данными.
func OK(w http.ResponseWriter, status int, message string, data any) {
	Write(w, status, Envelope{Message: message, Data: data})
}

// Fail — ответ об ошибке клиента/сервера.
func Fail(w http.ResponseWriter, status int, message, errText string) {
	Write(w, status, Envelope{Message: message, Error: errText})
}

// Internal — 500 с безопасным сообщением.
func Internal(w http.ResponseWriter, message string) {
	Fail(w, http.StatusInternalServerError, message, ErrInternal)
}

// response формирует единый JSON-конверт ответов API.
//
// Успех: {success: true, message, data, traceId, timestamp}.
// Ошибка: {success: false, message, errors?, traceId?, timestamp, stack?}.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/notes-backend/internal/pkg/log"
)

// Envelope — тело любого ответа API.
type Envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      any               `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	TraceID   string            `json:"traceId,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Stack     string            `json:"stack,omitempty"`
}

// Problem — описание ошибки для конверта.
type Problem struct {
	Status  int
	Message string
	Fields  map[string]string
	// Detail попадает в поле stack; заполняется только вне production.
	Detail string
}

// JSON пишет успешный конверт.
func JSON(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	write(w, r, status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error пишет конверт ошибки.
func Error(w http.ResponseWriter, r *http.Request, p Problem) {
	write(w, r, p.Status, Envelope{
		Success: false,
		Message: p.Message,
		Errors:  p.Fields,
		Stack:   p.Detail,
	})
}

func write(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	env.TraceID = log.RequestID(r.Context())
	env.Timestamp = time.Now().UTC()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.From(r.Context()).Warn("response_encode_failed", slog.String("err", err.Error()))
	}
}

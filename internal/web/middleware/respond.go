package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/palletflow/internal/core"
)

// ErrorResponse is the JSON body of every non-import error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// WriteError maps err to its user message and writes it as JSON.
func WriteError(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

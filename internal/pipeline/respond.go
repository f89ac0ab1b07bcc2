package pipeline

import (
	"encoding/json"
	"net/http"
)

// Client-facing messages shared by the pipeline.
const (
	// MessageInternalError is the generic body for unexpected failures.
	MessageInternalError = "Something went wrong!"
)

// ErrorBody is the JSON shape of every failure response.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

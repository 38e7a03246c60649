package http

import (
	"encoding/json"
	"net/http"
)

// SuccessResponse wraps a successful response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ListResponse wraps a list of items (non-paginated)
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The header has already been sent; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success response
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteAccepted acknowledges work that completes asynchronously.
func WriteAccepted(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusAccepted, SuccessResponse{Message: message})
}

// WriteNoContent writes a no content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteList writes a simple list response
func WriteList[T any](w http.ResponseWriter, data []T) {
	if data == nil {
		data = []T{}
	}
	WriteJSON(w, http.StatusOK, ListResponse[T]{
		Data:  data,
		Count: len(data),
	})
}

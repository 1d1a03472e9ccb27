package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Pagination is the page descriptor attached to listing responses.
type Pagination struct {
	Page    int   `json:"page"`
	MaxPage int   `json:"maxpage"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
}

// MaxPage computes the last page number for a total at the given page size.
// An empty table still has one page.
func MaxPage(total int64, limit int) int {
	if limit <= 0 {
		return 1
	}
	pages := int(total) / limit
	if int(total)%limit > 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return pages
}

// RespondJSON writes a JSON response
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes an error response
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondErrorWithCode writes an error response with an error code
func RespondErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// RespondValidationError writes a validation error response
func RespondValidationError(w http.ResponseWriter, details any) {
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Validation error",
		Code:    "VALIDATION_ERROR",
		Details: details,
	})
}

// RespondSuccess writes a success response
func RespondSuccess(w http.ResponseWriter, data any) {
	RespondJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// RespondMessage writes a success response carrying only a message
func RespondMessage(w http.ResponseWriter, message string) {
	RespondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message})
}

// RespondNoContent writes a 204 response
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes a JSON request body
func DecodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// GetQueryInt extracts an integer query parameter with a default value
func GetQueryInt(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// GetQueryInt64 extracts an int64 query parameter with a default value
func GetQueryInt64(r *http.Request, key string, defaultValue int64) int64 {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// GetQueryString extracts a string query parameter with a default value
func GetQueryString(r *http.Request, key string, defaultValue string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	return val
}

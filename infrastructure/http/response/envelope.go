package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the FastAPI-style error payload the tournament backend emits.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	WriteJSON(w, statusCode, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Error(w http.ResponseWriter, statusCode int, detail string) {
	WriteJSON(w, statusCode, ErrorBody{Detail: detail})
}

func BadRequest(w http.ResponseWriter, detail string) {
	Error(w, http.StatusBadRequest, detail)
}

func Unauthorized(w http.ResponseWriter, detail string) {
	Error(w, http.StatusUnauthorized, detail)
}

func Forbidden(w http.ResponseWriter, detail string) {
	Error(w, http.StatusForbidden, detail)
}

func NotFound(w http.ResponseWriter, detail string) {
	Error(w, http.StatusNotFound, detail)
}

func Conflict(w http.ResponseWriter, detail string) {
	Error(w, http.StatusConflict, detail)
}

// UnprocessableEntity mirrors FastAPI's validation error list.
func UnprocessableEntity(w http.ResponseWriter, detail string) {
	WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"detail": []map[string]string{{"msg": detail}},
	})
}

func InternalServerError(w http.ResponseWriter, detail string) {
	Error(w, http.StatusInternalServerError, detail)
}

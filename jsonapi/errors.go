package jsonapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorObject is a JSON:API error object
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// ErrorDocument is the top-level shape for error responses:
// {"errors": [ {...}, ... ]}
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// RenderError writes a single-error JSON:API error document
func RenderError(w http.ResponseWriter, status int, title, detail string) {
	doc := &ErrorDocument{
		Errors: []ErrorObject{
			{
				Status: strconv.Itoa(status),
				Title:  title,
				Detail: detail,
			},
		},
	}

	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

// RenderBadRequest writes a 400 error document
func RenderBadRequest(w http.ResponseWriter, detail string) {
	RenderError(w, http.StatusBadRequest, "Bad Request", detail)
}

// RenderNotFound writes a 404 error document
func RenderNotFound(w http.ResponseWriter, detail string) {
	RenderError(w, http.StatusNotFound, "Not Found", detail)
}

// RenderInternalError writes a 500 error document without leaking internals
func RenderInternalError(w http.ResponseWriter) {
	RenderError(w, http.StatusInternalServerError, "Internal Server Error", "")
}

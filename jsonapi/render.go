package jsonapi

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
)

// MediaType is the official JSON:API media type
const MediaType = "application/vnd.api+json"

// IsJSONAPI checks if the request accepts the JSON:API format
func IsJSONAPI(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}

	// Parse media type to handle parameters like charset
	mediaType, _, err := mime.ParseMediaType(accept)
	if err != nil {
		// Fall back to simple check if parsing fails
		return strings.Contains(accept, MediaType)
	}

	return mediaType == MediaType
}

// Render marshals a document and writes it with the JSON:API media type.
// It marshals FIRST, before touching the response, so a marshaling failure
// never produces a partial write.
func Render(w http.ResponseWriter, status int, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mlawrence/jobscout/internal/domain"
)

// maxJSONBody caps request bodies at 1 MB.
const maxJSONBody = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a JSON request body into dst. Unknown fields are
// rejected so typos surface as 400s instead of silently-zero fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("handler.decode", "Request body is not valid JSON.")
	}
	return nil
}

package httpx

import (
	"encoding/json"
	"net/http"
)

const headerUserID = "X-User-ID"

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// userID reads the authenticated user from the header set by the session
// layer in front of this service. Empty means unauthenticated.
func userID(r *http.Request) string {
	return r.Header.Get(headerUserID)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := userID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return id, true
}

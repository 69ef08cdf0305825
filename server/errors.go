package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// follows RFC 7807: Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

func (pd *ProblemDetails) Error() string {
	return fmt.Sprintf("%d %s: %s", pd.Status, pd.Title, pd.Detail)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	pd := &ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}

	json.NewEncoder(w).Encode(pd)
}

func writeBadRequest(w http.ResponseWriter, detail, instance string) {
	writeProblem(w, http.StatusBadRequest, "Bad Request", detail, instance)
}

func writeNotFound(w http.ResponseWriter, detail, instance string) {
	writeProblem(w, http.StatusNotFound, "Not Found", detail, instance)
}

func writeInternalServerError(w http.ResponseWriter, err error, instance string) {
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error(), instance)
}

func writeGatewayTimeout(w http.ResponseWriter, detail, instance string) {
	writeProblem(w, http.StatusGatewayTimeout, "Gateway Timeout", detail, instance)
}

package problem

import (
	"encoding/json"
	"net/http"
)

type Problem struct {
	Type       string      `json:"type"`
	Title      string      `json:"title"`
	Status     int         `json:"status"`
	Detail     string      `json:"detail,omitempty"`
	Instance   string      `json:"instance,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
}

// Violation mirrors a single failed validation rule.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Write(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// WriteViolations writes a 422 carrying every accumulated violation so
// clients can fix all fields in one round trip.
func WriteViolations(w http.ResponseWriter, detail string, violations []Violation) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(Problem{
		Type:       "about:blank",
		Title:      "Validation Failed",
		Status:     http.StatusUnprocessableEntity,
		Detail:     detail,
		Violations: violations,
	})
}

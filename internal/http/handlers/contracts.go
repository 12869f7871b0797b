package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Mount(r chi.Router)
}

// pagination reads limit/offset query parameters with sane defaults.
// Services clamp the limit again on their side.
func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset = 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

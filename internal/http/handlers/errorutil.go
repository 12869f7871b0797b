package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/assurtech/autocover/internal/core"
	"github.com/assurtech/autocover/pkg/problem"
)

func writeError(ctx context.Context, log *slog.Logger, w http.ResponseWriter, err error, detail string) {
	var vErr *core.ValidationError

	switch {
	case errors.As(err, &vErr):
		log.WarnContext(ctx, "validation failed", "violations", len(vErr.Violations))
		problem.WriteViolations(w, detail, toProblemViolations(vErr.Violations))

	case errors.Is(err, core.ErrNotFound):
		log.WarnContext(ctx, "resource not found", "err", err)
		problem.Write(w, http.StatusNotFound, "Not Found", detail)

	case errors.Is(err, core.ErrValidation):
		log.WarnContext(ctx, "validation failed", "err", err)
		problem.Write(w, http.StatusBadRequest, "Validation Error", detail)

	case errors.Is(err, core.ErrConflict):
		log.WarnContext(ctx, "resource conflict", "err", err)
		problem.Write(w, http.StatusConflict, "Conflict", detail)

	case errors.Is(err, core.ErrUnauthorized):
		log.WarnContext(ctx, "unauthorized request", "err", err)
		problem.Write(w, http.StatusUnauthorized, "Unauthorized", detail)

	case errors.Is(err, core.ErrForbidden):
		log.WarnContext(ctx, "forbidden operation", "err", err)
		problem.Write(w, http.StatusForbidden, "Forbidden", detail)

	case errors.Is(err, context.DeadlineExceeded):
		log.ErrorContext(ctx, "operation timeout", "err", err)
		problem.Write(w, http.StatusGatewayTimeout, "Timeout", "Operation took too long.")

	default:
		log.ErrorContext(ctx, "internal server error", "err", err)
		problem.Write(w, http.StatusInternalServerError, "Internal Server Error", detail)
	}
}

func toProblemViolations(violations []core.Violation) []problem.Violation {
	out := make([]problem.Violation, len(violations))
	for i, v := range violations {
		out[i] = problem.Violation{Code: v.Code, Message: v.Message}
	}
	return out
}

package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"shop-backend/internal/errx"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy to transport codes. Anything
// outside the taxonomy is logged with detail and reported opaquely.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		vErr  *errx.ValidationError
		nfErr *errx.NotFoundError
		isErr *errx.InvalidStateError
		stErr *errx.InsufficientStockError
		exErr *errx.ExternalError
	)
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Msg)
	case errors.As(err, &nfErr):
		writeError(w, http.StatusNotFound, nfErr.Error())
	case errors.As(err, &isErr):
		writeError(w, http.StatusBadRequest, isErr.Msg)
	case errors.As(err, &stErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     stErr.Error(),
			"shortages": stErr.Shortages,
		})
	case errors.As(err, &exErr):
		log.Printf("external service: %v", err)
		writeError(w, http.StatusInternalServerError, exErr.Op+" failed")
	default:
		log.Printf("unexpected: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

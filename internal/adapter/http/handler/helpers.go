package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
		Kind:    string(kindForStatus(status)),
	})
}

// writeDomainError classifies err and writes the matching response. Internal
// errors are logged and reported without details.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	kind := domain.KindOf(err)
	status := mapDomainError(err)

	details := err.Error()
	if kind == domain.KindInternal {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
		details = ""
	}

	writeJSON(w, status, dto.ErrorResponse{
		Error:     message,
		Message:   details,
		Kind:      string(kind),
		Retryable: kind == domain.KindConflict,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInsufficientFunds, domain.KindCurrencyMismatch,
		domain.KindBelowMinimumPayment, domain.KindIneligibleForLoan:
		return http.StatusUnprocessableEntity
	case domain.KindAlreadyClosed, domain.KindDuplicate, domain.KindInUse, domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidRequest, domain.KindInvalidOrExpiredQR:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(status int) domain.ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return domain.KindInvalidRequest
	case http.StatusUnauthorized:
		return domain.KindUnauthorized
	case http.StatusNotFound:
		return domain.KindNotFound
	default:
		return ""
	}
}

// decodeJSON decodes a bounded request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body", "empty body")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// principal returns the authenticated caller, writing 401 when there is none.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return domain.Principal{}, false
	}
	return p, true
}

// targetUser returns the user a listing is for: the caller, or ?userId for admins.
func targetUser(r *http.Request, p domain.Principal) string {
	if userID := r.URL.Query().Get("userId"); userID != "" && p.IsAdmin() {
		return userID
	}
	return p.UserID
}

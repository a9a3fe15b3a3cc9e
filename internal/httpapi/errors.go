package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"fjacquet/receipt-ledger/internal/journal"
	"fjacquet/receipt-ledger/internal/parsererror"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error            string                   `json:"error"`
	ErrorDescription string                   `json:"error_description"`
	Fields           []parsererror.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

// writeServiceError maps pipeline errors onto status codes: bad input is 400,
// receipts and entries that break an invariant are 422.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		parseErr      *parsererror.ParseError
		validationErr *parsererror.ValidationError
		balanceErr    *parsererror.BalanceError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:            "validation_error",
			ErrorDescription: validationErr.Error(),
			Fields:           validationErr.Errors,
		})
	case errors.As(err, &balanceErr):
		writeJSONError(w, http.StatusUnprocessableEntity, "unbalanced", balanceErr.Error())
	case errors.As(err, &parseErr):
		writeJSONError(w, http.StatusBadRequest, "parse_error", parseErr.Error())
	case errors.Is(err, journal.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "Entry not found")
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to process entry")
	}
}

func isClientError(err error) bool {
	var (
		parseErr      *parsererror.ParseError
		validationErr *parsererror.ValidationError
		balanceErr    *parsererror.BalanceError
	)
	return errors.As(err, &parseErr) || errors.As(err, &validationErr) || errors.As(err, &balanceErr)
}

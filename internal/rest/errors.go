// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jeremyhahn/go-custody/pkg/custody"
	"github.com/jeremyhahn/go-custody/pkg/registry"
	"github.com/jeremyhahn/go-custody/pkg/storage"
	"github.com/jeremyhahn/go-custody/pkg/workflow"
)

// Common errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingField   = errors.New("missing required field")
	ErrInternal       = errors.New("internal server error")
)

// writeError writes an error response to the client.
func writeError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error: err.Error(),
		Code:  statusCode,
	}

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		log.Printf("Failed to encode error response: %v", encErr)
	}
}

// mapErrorToStatusCode maps domain errors to HTTP status codes.
func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, custody.ErrWalletNotFound),
		errors.Is(err, workflow.ErrTransactionNotFound),
		errors.Is(err, registry.ErrPartyNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrMissingField),
		errors.Is(err, custody.ErrInvalidWalletRequest),
		errors.Is(err, custody.ErrInsufficientParties),
		errors.Is(err, workflow.ErrInvalidProposal),
		errors.Is(err, registry.ErrInvalidParty):
		return http.StatusBadRequest

	case errors.Is(err, custody.ErrPartialKeyGenerationConflict),
		errors.Is(err, custody.ErrWalletAlreadyKeyed),
		errors.Is(err, custody.ErrWalletHasPendingTransactions),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrThresholdNotReached),
		errors.Is(err, registry.ErrDuplicateParty),
		errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict

	case errors.Is(err, workflow.ErrTransactionExpired),
		errors.Is(err, workflow.ErrTransactionRejected),
		errors.Is(err, workflow.ErrWalletNotActive):
		return http.StatusGone

	case errors.Is(err, workflow.ErrUnknownParty),
		errors.Is(err, workflow.ErrWrongTransaction):
		return http.StatusForbidden

	case errors.Is(err, workflow.ErrExecutionFailed):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// handleError maps the error to a status code and writes the response.
func handleError(w http.ResponseWriter, err error) {
	writeError(w, err, mapErrorToStatusCode(err))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

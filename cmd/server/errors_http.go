package main

import (
	"net/http"

	"github.com/krira-ai/ragcore"
)

// statusForKind is the HTTP-layer Kind -> status code mapping table.
// Handlers never hardcode a status per call site; they all funnel
// errors through writeServiceError.
var statusForKind = map[ragcore.Kind]int{
	ragcore.KindValidation:      http.StatusBadRequest,
	ragcore.KindNotFound:        http.StatusNotFound,
	ragcore.KindForbidden:       http.StatusForbidden,
	ragcore.KindUnprocessable:   http.StatusUnprocessableEntity,
	ragcore.KindAuth:            http.StatusUnauthorized,
	ragcore.KindPaymentRequired: http.StatusPaymentRequired,
	ragcore.KindUpstream:        http.StatusBadGateway,
	ragcore.KindInternal:        http.StatusInternalServerError,
	ragcore.KindServiceConfig:   http.StatusInternalServerError,
}

// writeServiceError maps err's Kind to a status code and writes the
// `{detail}` error body.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := ragcore.KindOf(err)
	status, ok := statusForKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"detail": ragcore.SafeMessage(err)})
}

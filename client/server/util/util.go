package util

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	nberrors "github.com/gitify-app/updater/client/errors"
)

// EmptyObject is an empty struct used to return empty JSON object
type EmptyObject struct {
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
}

// WriteJSONObject writes an object to the HTTP response in JSON format with status 200
func WriteJSONObject(ctx context.Context, w http.ResponseWriter, obj interface{}) {
	WriteJSONObjectWithStatus(ctx, w, http.StatusOK, obj)
}

// WriteJSONObjectWithStatus writes an object to the HTTP response in JSON format
func WriteJSONObjectWithStatus(ctx context.Context, w http.ResponseWriter, httpStatus int, obj interface{}) {
	setHeaders(w)

	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.WithContext(ctx).Errorf("failed to encode response: %v", err)
	}
}

// WriteErrorResponse prepares and writes an error response in JSON format.
func WriteErrorResponse(errMsg string, httpStatus int, w http.ResponseWriter) {
	writeErrorResponse(ErrorResponse{Message: errMsg, Code: httpStatus}, w)
}

func writeErrorResponse(resp ErrorResponse, w http.ResponseWriter) {
	setHeaders(w)

	w.WriteHeader(resp.Code)
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		http.Error(w, "failed handling request", http.StatusInternalServerError)
	}
}

// WriteError converts an error to a JSON error response.
// Only the message of a known update error reaches the client, its cause is logged.
func WriteError(ctx context.Context, err error, w http.ResponseWriter) {
	log.WithContext(ctx).Errorf("got a handler error: %s", err.Error())

	e, ok := nberrors.FromError(err)
	if !ok || e == nil {
		WriteErrorResponse("internal server error", http.StatusInternalServerError, w)
		return
	}

	writeErrorResponse(ErrorResponse{
		Message: e.Message,
		Code:    HTTPStatus(e.Type()),
		Kind:    e.Type().String(),
	}, w)
}

// HTTPStatus maps an update error kind to the status code returned by the API
func HTTPStatus(t nberrors.Type) int {
	switch t {
	case nberrors.NoUpdateAvailable:
		return http.StatusPreconditionFailed
	case nberrors.ArtifactAlreadyConsumed:
		return http.StatusConflict
	case nberrors.TransportError, nberrors.ParseError, nberrors.VerificationError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func setHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
}

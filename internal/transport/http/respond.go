package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "afya/pkg/domain-errors"
)

// Every response carries the wire status alongside its payload: 0 for
// success, negative values for the validation failure classes the SMS and
// form clients branch on.
func writeJSON(w http.ResponseWriter, httpStatus int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeOK(w http.ResponseWriter, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["status"] = dErrors.StatusOK
	writeJSON(w, http.StatusOK, payload)
}

// writeError translates a domain error into the JSON error envelope. The
// envelope carries the wire status and, when known, the first offending field
// as "key".
func writeError(w http.ResponseWriter, err error) {
	payload := map[string]any{
		"status":  dErrors.Status(err),
		"message": messageFor(err),
	}
	if key := dErrors.Key(err); key != "" {
		payload["key"] = key
	}
	writeJSON(w, httpStatusFor(err), payload)
}

func httpStatusFor(err error) int {
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		return http.StatusNotFound
	case dErrors.HasCode(err, dErrors.CodeConflict):
		return http.StatusConflict
	case dErrors.HasCode(err, dErrors.CodeInvalidInput),
		dErrors.HasCode(err, dErrors.CodeInvalidPattern),
		dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor hides internal error detail; only client-addressable failures
// surface their message.
func messageFor(err error) string {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		return "internal error"
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "invalid request"
}

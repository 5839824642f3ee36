package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/goto/salt/log"
)

// ErrorResponse is the common error payload of every endpoint.
type ErrorResponse struct {
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.NewLogrus()
		logger.Error(fmt.Sprintf("error encoding response to json: %v", err))
	}
}

func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &ErrorResponse{
		Reason: msg,
	})
}

func internalServerError(w http.ResponseWriter, logger log.Logger, msg string) {
	logger.Error(msg)
	WriteJSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func bodyParserErrorMsg(err error) string {
	return fmt.Sprintf("error parsing request body: %v", err)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, http.StatusNotFound, mux.ErrNotFound.Error())
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, http.StatusMethodNotAllowed, mux.ErrMethodMismatch.Error())
}

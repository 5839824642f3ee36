package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/goto/salt/log"

	"github.com/datatrail-io/sextant/core/catalog"
	"github.com/datatrail-io/sextant/core/lineage"
)

// LineageHandler exposes a REST interface to dependency graphs
type LineageHandler struct {
	logger  log.Logger
	service *lineage.Service
}

func NewLineageHandler(logger log.Logger, service *lineage.Service) *LineageHandler {
	handler := &LineageHandler{
		logger:  logger,
		service: service,
	}

	return handler
}

func (h *LineageHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	objectID, ok := h.objectIDFromRequest(w, r)
	if !ok {
		return
	}

	direction := lineage.Direction(r.URL.Query().Get("direction"))
	depth, _ := strconv.Atoi(r.URL.Query().Get("depth"))

	graph, err := h.service.GetLineage(r.Context(), objectID, direction, depth)
	if err != nil {
		if errors.As(err, new(lineage.InvalidDirectionError)) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.As(err, new(catalog.NotFoundError)) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		internalServerError(w, h.logger, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, graph)
}

func (h *LineageHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	objectID, ok := h.objectIDFromRequest(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), objectID)
	if err != nil {
		if errors.As(err, new(catalog.NotFoundError)) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		internalServerError(w, h.logger, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type manualDependencyPayload struct {
	Object string       `json:"object"`
	Target string       `json:"target"`
	Type   lineage.Type `json:"dependency_type"`
}

func (h *LineageHandler) AddManualDependency(w http.ResponseWriter, r *http.Request) {
	var payload manualDependencyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteJSONError(w, http.StatusBadRequest, bodyParserErrorMsg(err))
		return
	}

	dep, err := h.service.AddManualDependency(r.Context(), payload.Object, payload.Target, payload.Type)
	if err != nil {
		switch {
		case errors.As(err, new(lineage.InvalidIdentifierError)),
			errors.Is(err, lineage.ErrSelfDependency):
			WriteJSONError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, new(catalog.NotFoundError)):
			WriteJSONError(w, http.StatusNotFound, err.Error())
		default:
			internalServerError(w, h.logger, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, dep)
}

func (h *LineageHandler) RemoveManualDependency(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	objectID, err := strconv.ParseInt(vars["object_id"], 10, 64)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "object_id must be numeric")
		return
	}
	targetID, err := strconv.ParseInt(vars["target_id"], 10, 64)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "target_id must be numeric")
		return
	}

	removed, err := h.service.RemoveManualDependency(r.Context(), objectID, targetID)
	if err != nil {
		internalServerError(w, h.logger, err.Error())
		return
	}
	if !removed {
		WriteJSONError(w, http.StatusNotFound, "no manual dependency between the given objects")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LineageHandler) objectIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	objectID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "id must be numeric")
		return 0, false
	}
	return objectID, true
}

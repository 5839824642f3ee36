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
	"github.com/datatrail-io/sextant/core/validator"
)

// SourceHandler exposes a REST interface to sources, their cataloged
// objects and their scanned dependencies.
type SourceHandler struct {
	logger      log.Logger
	catalogRepo catalog.Repository
	service     *lineage.Service
}

func NewSourceHandler(logger log.Logger, catalogRepo catalog.Repository, service *lineage.Service) *SourceHandler {
	handler := &SourceHandler{
		logger:      logger,
		catalogRepo: catalogRepo,
		service:     service,
	}

	return handler
}

type createSourcePayload struct {
	Name string `json:"name" validate:"required"`
}

func (h *SourceHandler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var payload createSourcePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteJSONError(w, http.StatusBadRequest, bodyParserErrorMsg(err))
		return
	}
	if err := validator.ValidateStruct(payload); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	source, err := h.catalogRepo.CreateSource(r.Context(), payload.Name)
	if err != nil {
		internalServerError(w, h.logger, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, source)
}

type upsertObjectPayload struct {
	SchemaName string `json:"schema_name" validate:"required"`
	Name       string `json:"name" validate:"required"`
	ObjectType string `json:"object_type" validate:"omitempty,oneof=table view materialized_view"`
}

// UpsertObjects registers a batch of objects under a source so scanned
// dependencies have endpoints to attach to.
func (h *SourceHandler) UpsertObjects(w http.ResponseWriter, r *http.Request) {
	source, ok := h.sourceFromRequest(w, r)
	if !ok {
		return
	}

	var payload []upsertObjectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteJSONError(w, http.StatusBadRequest, bodyParserErrorMsg(err))
		return
	}

	ids := make([]int64, 0, len(payload))
	for _, obj := range payload {
		if err := validator.ValidateStruct(obj); err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		id, err := h.catalogRepo.UpsertObject(r.Context(), &catalog.Object{
			SourceID:   source.ID,
			SchemaName: obj.SchemaName,
			Name:       obj.Name,
			Type:       catalog.Type(obj.ObjectType),
		})
		if err != nil {
			internalServerError(w, h.logger, err.Error())
			return
		}
		ids = append(ids, id)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ids": ids,
	})
}

func (h *SourceHandler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	objectID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "id must be numeric")
		return
	}

	if err := h.catalogRepo.SoftDeleteObject(r.Context(), objectID); err != nil {
		if errors.As(err, new(catalog.NotFoundError)) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		internalServerError(w, h.logger, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ingestDependenciesPayload struct {
	ParsingSource string                  `json:"parsing_source" validate:"required"`
	ClearExisting bool                    `json:"clear_existing"`
	Dependencies  []lineage.RawDependency `json:"dependencies"`
}

// IngestDependencies reconciles a source's scanned edges for one
// provenance bucket against the submitted set.
func (h *SourceHandler) IngestDependencies(w http.ResponseWriter, r *http.Request) {
	source, ok := h.sourceFromRequest(w, r)
	if !ok {
		return
	}

	var payload ingestDependenciesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteJSONError(w, http.StatusBadRequest, bodyParserErrorMsg(err))
		return
	}
	if err := validator.ValidateStruct(payload); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, raw := range payload.Dependencies {
		if err := validator.ValidateStruct(raw); err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.service.IngestDependencies(r.Context(), source.ID, payload.Dependencies, payload.ParsingSource, payload.ClearExisting)
	if err != nil {
		if errors.Is(err, lineage.ErrNoParsingSource) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalServerError(w, h.logger, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteDependencies removes a source's edges, optionally scoped to one
// provenance bucket via the parsing_source query parameter.
func (h *SourceHandler) DeleteDependencies(w http.ResponseWriter, r *http.Request) {
	source, ok := h.sourceFromRequest(w, r)
	if !ok {
		return
	}

	parsingSource := r.URL.Query().Get("parsing_source")
	if err := h.service.DeleteSourceDependencies(r.Context(), source.ID, parsingSource); err != nil {
		internalServerError(w, h.logger, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SourceHandler) sourceFromRequest(w http.ResponseWriter, r *http.Request) (catalog.Source, bool) {
	name := mux.Vars(r)["name"]

	source, err := h.catalogRepo.GetSourceByName(r.Context(), name)
	if err != nil {
		if errors.As(err, new(catalog.SourceNotFoundError)) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return catalog.Source{}, false
		}
		internalServerError(w, h.logger, err.Error())
		return catalog.Source{}, false
	}
	return source, true
}

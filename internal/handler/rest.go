package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/articulos-api/internal/model"
	"github.com/vyrodovalexey/articulos-api/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	store     store.Store
	publisher Publisher
	logger    *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance. A nil publisher
// disables change notifications.
func NewRESTHandler(s store.Store, publisher Publisher, logger *zap.Logger) *RESTHandler {
	if publisher == nil {
		publisher = noopPublisher{}
	}

	return &RESTHandler{
		store:     s,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/articulos", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/articulos", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/articulos/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/articulos/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/api/articulos/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(http.StatusOK, model.MsgHealthy, response))
}

// ReadyCheck handles GET /ready requests.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.List(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, model.MsgNotReady)
		return
	}

	response := ReadyResponse{Status: "ready"}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(http.StatusOK, model.MsgHealthy, response))
}

// ListItems handles GET /api/articulos requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.handleError(w, err, "list items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(http.StatusOK, model.MsgListed, items))
}

// GetItem handles GET /api/articulos/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		h.handleError(w, store.ErrNotFound, "get item")
		return
	}

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(http.StatusOK, model.MsgFound, item))
}

// CreateItem handles POST /api/articulos requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	input, err := decodeItemInput(w, r)
	if err != nil {
		h.handleError(w, err, "create item")
		return
	}

	item, err := h.store.Create(r.Context(), input)
	if err != nil {
		h.handleError(w, err, "create item")
		return
	}

	h.publisher.Publish(model.NewItemEvent(model.EventCreated, *item))
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(http.StatusCreated, model.MsgCreated, item))
}

// UpdateItem handles PUT /api/articulos/{id} requests.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	input, err := decodeItemInput(w, r)
	if err != nil {
		h.handleError(w, err, "update item")
		return
	}

	id, ok := itemID(r)
	if !ok {
		h.handleError(w, store.ErrNotFound, "update item")
		return
	}

	item, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		h.handleError(w, err, "update item")
		return
	}

	h.publisher.Publish(model.NewItemEvent(model.EventUpdated, *item))
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(http.StatusOK, model.MsgUpdated, item))
}

// DeleteItem handles DELETE /api/articulos/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		h.handleError(w, store.ErrNotFound, "delete item")
		return
	}

	item, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "delete item")
		return
	}

	h.publisher.Publish(model.NewItemEvent(model.EventDeleted, *item))
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(http.StatusOK, model.MsgDeleted, item))
}

// handleError maps decoding, validation and store errors to HTTP responses.
func (h *RESTHandler) handleError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, model.ErrMalformedBody):
		h.logger.Warn("invalid request body", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, model.MsgMalformedBody)
	case errors.Is(err, model.ErrMissingFields):
		h.logger.Warn("validation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, model.MsgMissingFields)
	case errors.Is(err, model.ErrValidation):
		h.logger.Warn("validation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, model.MsgInvalidData)
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, model.MsgNotFound)
	case errors.Is(err, store.ErrPersistence):
		h.logger.Error("store write failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, model.MsgStorageFailure)
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, model.MsgInternalError)
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.NewErrorResponse(status, message))
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	"github.com/vogiaan1904/realm-lfg/internal/lfg"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/internal/service"
	pkgErrors "github.com/vogiaan1904/realm-lfg/pkg/errors"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
	resp "github.com/vogiaan1904/realm-lfg/pkg/response"
)

var (
	errTicketNotFound   = pkgErrors.NewHTTPError(http.StatusNotFound, 40401, "Ticket not found")
	errProposalNotFound = pkgErrors.NewHTTPError(http.StatusNotFound, 40402, "Proposal not found")
	errDungeonNotFound  = pkgErrors.NewHTTPError(http.StatusNotFound, 40403, "Dungeon not found")
	errInvalidQueue     = pkgErrors.NewHTTPError(http.StatusBadRequest, 40001, "Unknown queue type")
	errInvalidBody      = pkgErrors.NewHTTPError(http.StatusBadRequest, 40002, "Invalid request body")
	errInvalidToken     = pkgErrors.NewHTTPError(http.StatusUnauthorized, 40101, "Entry token is invalid")
	errTokenExpired     = pkgErrors.NewHTTPError(http.StatusUnauthorized, 40102, "Entry token expired")
	errTokenStale       = pkgErrors.NewHTTPError(http.StatusConflict, 40901, "Entry token no longer matches the ticket")
	errEngineNotReady   = pkgErrors.NewHTTPError(http.StatusServiceUnavailable, 50301, "Matchmaking engine is not running")
)

type HTTPHandler struct {
	lfgService service.LfgService
	catalog    *catalog.Catalog
	logger     logger.Logger
	validator  *validator.Validate
}

func NewHTTPHandler(lfgService service.LfgService, cat *catalog.Catalog, l logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		lfgService: lfgService,
		catalog:    cat,
		logger:     l,
		validator:  validator.New(),
	}
}

type validateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// HealthCheck reports healthy while the engine loop is running.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	st := h.lfgService.GetEngineStatus()
	code := http.StatusOK
	status := "healthy"
	if !st.IsRunning {
		code = http.StatusServiceUnavailable
		status = "unavailable"
	}
	h.respondJSON(w, r, code, map[string]any{
		"status":  status,
		"service": "lfg-service",
	})
}

func (h *HTTPHandler) EngineStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, h.lfgService.GetEngineStatus())
}

func (h *HTTPHandler) ListDungeons(w http.ResponseWriter, r *http.Request) {
	ids := h.catalog.IDs()
	out := make([]catalog.Dungeon, 0, len(ids))
	for _, id := range ids {
		d, err := h.catalog.Get(id)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) GetDungeon(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "dungeonId"), 10, 32)
	if err != nil {
		h.respondError(w, r, errDungeonNotFound)
		return
	}
	d, err := h.catalog.Get(uint32(id))
	if err != nil {
		h.respondError(w, r, errDungeonNotFound)
		return
	}
	h.respondJSON(w, r, http.StatusOK, d)
}

// ListQueue lists waiting tickets of one queue type in priority order.
func (h *HTTPHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	qt, err := strconv.ParseUint(chi.URLParam(r, "queueType"), 10, 8)
	if err != nil {
		h.respondError(w, r, errInvalidQueue)
		return
	}

	entries, err := h.lfgService.ListQueue(r.Context(), models.QueueType(qt))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"queue_type": qt,
		"length":     len(entries),
		"tickets":    entries,
	})
}

func (h *HTTPHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	out, err := h.lfgService.GetTicketState(r.Context(), chi.URLParam(r, "ticketId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.lfgService.GetProposal(r.Context(), chi.URLParam(r, "proposalId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, p)
}

// ValidateEntryToken is called by world servers before admitting a member.
func (h *HTTPHandler) ValidateEntryToken(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errInvalidBody)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, r, errInvalidBody)
		return
	}

	out, err := h.lfgService.ValidateEntryToken(r.Context(), req.Token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) mapHTTPError(err error) error {
	var je *lfg.JoinError
	switch {
	case errors.As(err, &je):
		return pkgErrors.NewHTTPError(http.StatusUnprocessableEntity, 42200+int(je.Result), je.Msg)
	case errors.Is(err, service.ErrTicketNotFound):
		return errTicketNotFound
	case errors.Is(err, service.ErrProposalNotFound):
		return errProposalNotFound
	case errors.Is(err, service.ErrInvalidQueue):
		return errInvalidQueue
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrTokenEmpty):
		return errInvalidBody
	case errors.Is(err, service.ErrTokenExpired):
		return errTokenExpired
	case errors.Is(err, service.ErrTokenStale):
		return errTokenStale
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenNotValid),
		errors.Is(err, service.ErrTokenInvalidClaims),
		errors.Is(err, service.ErrTokenUnexpectedSignature):
		return errInvalidToken
	case errors.Is(err, service.ErrEngineNotReady):
		return errEngineNotReady
	default:
		return err
	}
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorf(r.Context(), "Failed to encode JSON response: %v", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code, body := resp.ParseHTTPError(h.mapHTTPError(err))
	if code >= http.StatusInternalServerError {
		h.logger.Errorw(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debugw(r.Context(), "Request rejected", "path", r.URL.Path, "error", err)
	}
	h.respondJSON(w, r, code, body)
}

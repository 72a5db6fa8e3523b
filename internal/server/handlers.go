package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sundeep8967/zerobroker/internal/domain"
	"github.com/sundeep8967/zerobroker/internal/identity"
	"github.com/sundeep8967/zerobroker/internal/service"
)

// APIHandlers exposes the HTTP handlers for the notification and unlock core.
type APIHandlers struct {
	logger      *slog.Logger
	auth        identity.Authenticator
	unlocks     *service.UnlockService
	dispatcher  *service.Dispatcher
	maintenance *service.Maintenance
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, auth identity.Authenticator, unlocks *service.UnlockService, dispatcher *service.Dispatcher, maintenance *service.Maintenance) *APIHandlers {
	return &APIHandlers{
		logger:      logger,
		auth:        auth,
		unlocks:     unlocks,
		dispatcher:  dispatcher,
		maintenance: maintenance,
	}
}

type verifyUnlockRequest struct {
	PaymentID  string  `json:"paymentId"`
	PropertyID string  `json:"propertyId"`
	Amount     float64 `json:"amount"`
}

type verifyUnlockResponse struct {
	Success  bool   `json:"success"`
	UnlockID string `json:"unlockId"`
}

func (h *APIHandlers) handleVerifyUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	userID, err := h.auth.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		writeErrorCode(w, http.StatusUnauthorized, service.CodeUnauthenticated, "user must be authenticated")
		return
	}

	var req verifyUnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid-argument", "invalid request body")
		return
	}
	if req.PropertyID == "" || req.PaymentID == "" {
		writeErrorCode(w, http.StatusBadRequest, "invalid-argument", "propertyId and paymentId are required")
		return
	}
	if req.Amount < 0 {
		writeErrorCode(w, http.StatusBadRequest, "invalid-argument", "amount must be non-negative")
		return
	}

	unlockID, err := h.unlocks.Verify(r.Context(), service.VerifyInput{
		UserID:     userID,
		PropertyID: req.PropertyID,
		PaymentID:  req.PaymentID,
		Amount:     req.Amount,
	})
	if err != nil {
		h.respondServiceError(w, err, "userId", userID, "propertyId", req.PropertyID)
		return
	}

	respondJSON(w, http.StatusOK, verifyUnlockResponse{Success: true, UnlockID: unlockID})
}

type propertyCreatedRequest struct {
	PropertyID string          `json:"propertyId"`
	Property   propertyPayload `json:"property"`
}

type propertyPayload struct {
	OwnerID      string          `json:"ownerId"`
	Title        string          `json:"title"`
	Rent         float64         `json:"rent"`
	PropertyType string          `json:"propertyType"`
	Location     locationPayload `json:"location"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type locationPayload struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

// handlePropertyCreated receives the document-creation event for a new
// listing and kicks off the notification fan-out. The fan-out has no caller
// awaiting a result, so the handler acknowledges immediately and the
// dispatcher logs its own failures.
func (h *APIHandlers) handlePropertyCreated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req propertyCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid-argument", "invalid request body")
		return
	}
	if req.PropertyID == "" {
		writeErrorCode(w, http.StatusBadRequest, "invalid-argument", "propertyId is required")
		return
	}

	property := domain.Property{
		ID:           req.PropertyID,
		OwnerID:      req.Property.OwnerID,
		Title:        req.Property.Title,
		Rent:         req.Property.Rent,
		PropertyType: req.Property.PropertyType,
		Location: domain.Location{
			Address: req.Property.Location.Address,
			City:    req.Property.Location.City,
			Pincode: req.Property.Location.Pincode,
		},
		IsActive:  req.Property.IsActive,
		CreatedAt: req.Property.CreatedAt,
	}

	go h.dispatcher.PropertyCreated(context.WithoutCancel(r.Context()), req.PropertyID, property)

	respondJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

// handleExpireListings and handleGenerateAnalytics back the scheduler's
// time-based triggers. Failures are logged, never returned to the scheduler.
func (h *APIHandlers) handleExpireListings(w http.ResponseWriter, r *http.Request) {
	h.runJob(w, r, "expire_listings", h.maintenance.ExpireListings)
}

func (h *APIHandlers) handleGenerateAnalytics(w http.ResponseWriter, r *http.Request) {
	h.runJob(w, r, "generate_analytics", h.maintenance.GenerateAnalytics)
}

func (h *APIHandlers) runJob(w http.ResponseWriter, r *http.Request, name string, job func(ctx context.Context) error) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := job(ctx); err != nil {
			h.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{"accepted": true, "job": name})
}

func (h *APIHandlers) respondServiceError(w http.ResponseWriter, err error, logAttrs ...any) {
	code := service.CodeFor(err)
	switch code {
	case service.CodeUnauthenticated:
		writeErrorCode(w, http.StatusUnauthorized, code, "user must be authenticated")
	case service.CodeAlreadyExists:
		writeErrorCode(w, http.StatusConflict, code, "contact already unlocked")
	case service.CodePaymentFailed:
		writeErrorCode(w, http.StatusPaymentRequired, code, "payment verification failed")
	default:
		// Keep the cause out of the response; operators get it from the log.
		h.logger.Error("unlock verification failed", append([]any{"error", err}, logAttrs...)...)
		writeErrorCode(w, http.StatusInternalServerError, code, "internal error")
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeErrorCode(w, http.StatusMethodNotAllowed, "method-not-allowed", "method not allowed")
}

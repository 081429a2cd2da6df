package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/crime-ease/platform/internal/shared/auth"
	"github.com/crime-ease/platform/internal/shared/config"
	"github.com/crime-ease/platform/internal/shared/errors"
	"github.com/crime-ease/platform/internal/shared/metrics"
	"github.com/crime-ease/platform/internal/shared/types"
	"github.com/crime-ease/platform/internal/user"
)

// WebhookHandler receives account lifecycle events from the identity
// provider and mirrors them into identity.users.
type WebhookHandler struct {
	users     *user.Repository
	secret    string
	tolerance time.Duration
	logger    *zap.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(users *user.Repository, cfg config.AuthConfig, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		users:     users,
		secret:    cfg.ClerkWebhookSecret,
		tolerance: time.Duration(cfg.WebhookToleranceSeconds) * time.Second,
		logger:    logger,
		now:       time.Now,
	}
}

// Routes registers the webhook routes
func (h *WebhookHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/clerk", h.HandleClerkWebhook)
	return r
}

// webhookPayload is the provider's event envelope
type webhookPayload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type webhookUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PrimaryEmailID string `json:"primary_email_address_id"`
	EmailAddresses []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PhoneNumbers []struct {
		PhoneNumber string `json:"phone_number"`
	} `json:"phone_numbers"`
	PublicMetadata struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

// HandleClerkWebhook processes a signed provider event
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errors.BadRequest("failed to read body"))
		return
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		metrics.RecordWebhookEvent("unknown", false)
		writeError(w, err)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RecordWebhookEvent("unknown", false)
		writeError(w, errors.BadRequest("invalid payload"))
		return
	}

	switch payload.Type {
	case "user.created", "user.updated":
		err = h.upsertUser(r, payload.Data)
	case "user.deleted":
		err = h.deleteUser(r, payload.Data)
	default:
		// Acknowledge event types we do not mirror
		h.logger.Debug("ignoring webhook event", zap.String("type", payload.Type))
	}

	if err != nil {
		metrics.RecordWebhookEvent(payload.Type, false)
		writeError(w, err)
		return
	}

	metrics.RecordWebhookEvent(payload.Type, true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (h *WebhookHandler) upsertUser(r *http.Request, data json.RawMessage) error {
	var wu webhookUser
	if err := json.Unmarshal(data, &wu); err != nil {
		return errors.BadRequest("invalid user payload")
	}
	if wu.ID == "" {
		return errors.BadRequest("user id is required")
	}

	email := ""
	for _, e := range wu.EmailAddresses {
		if e.ID == wu.PrimaryEmailID || email == "" {
			email = e.EmailAddress
		}
	}

	phone := ""
	if len(wu.PhoneNumbers) > 0 {
		phone = wu.PhoneNumbers[0].PhoneNumber
	}

	role := strings.ToLower(wu.PublicMetadata.Role)
	switch role {
	case auth.RoleCitizen, auth.RoleOfficer, auth.RoleStationAdmin, auth.RoleNationalAdmin:
	default:
		role = auth.RoleCitizen
	}

	u := &user.User{
		ID:         types.NewID(),
		ExternalID: wu.ID,
		Email:      email,
		Name:       strings.TrimSpace(wu.FirstName + " " + wu.LastName),
		Role:       role,
		Phone:      phone,
	}

	if err := h.users.Upsert(r.Context(), u); err != nil {
		return err
	}

	h.logger.Info("user mirrored from identity provider",
		zap.String("external_id", wu.ID),
		zap.String("role", role))

	return nil
}

func (h *WebhookHandler) deleteUser(r *http.Request, data json.RawMessage) error {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ID == "" {
		return errors.BadRequest("invalid delete payload")
	}

	err := h.users.SoftDelete(r.Context(), payload.ID)
	if appErr, ok := err.(*errors.AppError); ok && appErr.Code == "NOT_FOUND" {
		// Delete for a user we never saw; nothing to do
		return nil
	}
	return err
}

// verifySignature checks the svix-style signature headers: an HMAC-SHA256
// over "<id>.<timestamp>.<body>" keyed with the decoded webhook secret.
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) error {
	if h.secret == "" {
		return errors.Internal(errors.ErrInternal)
	}

	msgID := header.Get("svix-id")
	msgTimestamp := header.Get("svix-timestamp")
	msgSignature := header.Get("svix-signature")
	if msgID == "" || msgTimestamp == "" || msgSignature == "" {
		return errors.Unauthorized("missing webhook signature headers")
	}

	ts, err := strconv.ParseInt(msgTimestamp, 10, 64)
	if err != nil {
		return errors.Unauthorized("invalid webhook timestamp")
	}
	age := h.now().Sub(time.Unix(ts, 0))
	if age > h.tolerance || age < -h.tolerance {
		return errors.Unauthorized("webhook timestamp outside tolerance")
	}

	secret, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.secret, "whsec_"))
	if err != nil {
		return errors.Unauthorized("invalid webhook secret")
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(msgID + "." + msgTimestamp + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// The signature header may carry several space-separated versions
	for _, sig := range strings.Fields(msgSignature) {
		parts := strings.SplitN(sig, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		if hmac.Equal([]byte(parts[1]), []byte(expected)) {
			return nil
		}
	}

	return errors.Unauthorized("webhook signature mismatch")
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}

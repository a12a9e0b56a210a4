package server

import (
	"io"
	"net/http"
	"time"

	"github.com/yuchialin/expense-claim/internal/webhook"
)

// webhook payloads are small JSON envelopes; cap the body defensively.
const maxWebhookBody = 1 << 20

// handleWebhook receives identity-provider lifecycle events and mirrors them
// into the provider_users table. Delivery is verified by signature before the
// payload is parsed. Mirror failures are logged but still acknowledged, so
// the provider does not retry an event we cannot apply.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	msgID := r.Header.Get("svix-id")
	timestamp := r.Header.Get("svix-timestamp")
	signature := r.Header.Get("svix-signature")

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.logger.Warn("webhook body read failed", "error", err)
		http.Error(w, "could not read body", http.StatusBadRequest)
		return
	}

	if err := webhook.Verify(
		s.webhookCfg.SigningSecret,
		msgID, timestamp, signature,
		payload,
		time.Now(),
		s.webhookCfg.Tolerance,
	); err != nil {
		s.logger.Warn("webhook signature rejected", "msg_id", msgID, "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	evt, err := webhook.ParseEvent(payload)
	if err != nil {
		s.logger.Warn("webhook payload rejected", "msg_id", msgID, "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	switch evt.Type {
	case webhook.EventUserCreated, webhook.EventUserUpdated:
		if err := s.users.Upsert(r.Context(), evt.ProviderUser()); err != nil {
			s.logger.Error("provider user upsert failed", "user_id", evt.Data.ID, "error", err)
		}
	case webhook.EventUserDeleted:
		if err := s.users.Delete(r.Context(), evt.Data.ID); err != nil {
			s.logger.Error("provider user delete failed", "user_id", evt.Data.ID, "error", err)
		}
	}

	s.logger.Info("webhook processed", "msg_id", msgID, "event_type", evt.Type, "user_id", evt.Data.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Webhook received"))
}

package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"course-service/config"
	"course-service/internal/apperr"
	"course-service/internal/util"

	"go.uber.org/zap"
)

// PaymentClient talks to the external payment collaborator. Session
// creation is a plain HTTP call; confirmation verification is a local
// HMAC-SHA256 check over the raw webhook payload with the shared
// webhook secret.
type PaymentClient struct {
	baseURL       string
	apiKey        string
	webhookSecret []byte
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewPaymentClient creates a new payment collaborator client
func NewPaymentClient(cfg config.PaymentConfig) *PaymentClient {
	return &PaymentClient{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		webhookSecret: []byte(cfg.WebhookSecret),
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        util.GetLogger(),
	}
}

type createSessionRequest struct {
	UserID   int64 `json:"user_id"`
	CourseID int64 `json:"course_id"`
	Amount   int64 `json:"amount"`
}

// CreateSession opens a checkout session with the collaborator and
// returns its reference plus the redirect URL for the buyer
func (pc *PaymentClient) CreateSession(ctx context.Context, userID, courseID, amount int64) (*PaymentSession, error) {
	ctx, span := util.StartSpan(ctx, "PaymentClient.CreateSession")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PaymentSessionLatency.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(createSessionRequest{
		UserID:   userID,
		CourseID: courseID,
		Amount:   amount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		pc.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pc.apiKey)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "payment provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pc.logger.Warn("Payment provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.Int64("course_id", courseID))
		return nil, apperr.UpstreamUnavailable(
			fmt.Sprintf("payment provider returned status %d", resp.StatusCode))
	}

	var session PaymentSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "invalid payment provider response", err)
	}
	if session.SessionID == "" || session.RedirectURL == "" {
		return nil, apperr.UpstreamUnavailable("payment provider response missing session fields")
	}

	return &session, nil
}

// VerifyConfirmation checks the webhook signature and decodes the
// payload. An unverified confirmation never reaches purchase state.
func (pc *PaymentClient) VerifyConfirmation(payload []byte, signature string) (*Confirmation, error) {
	mac := hmac.New(sha256.New, pc.webhookSecret)
	mac.Write(payload)

	provided, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(provided, mac.Sum(nil)) {
		return nil, apperr.Unauthorized("invalid confirmation signature")
	}

	var conf Confirmation
	if err := json.Unmarshal(payload, &conf); err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "malformed confirmation payload", err)
	}
	if conf.SessionID == "" {
		return nil, apperr.BadRequest("confirmation payload missing session reference")
	}

	return &conf, nil
}

package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course-service/config"
	"course-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaymentClient(baseURL string) *PaymentClient {
	return NewPaymentClient(config.PaymentConfig{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		WebhookSecret: "test-secret",
		Timeout:       2 * time.Second,
	})
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sessions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_id":"sess-123","redirect_url":"https://pay.example.com/sess-123"}`))
	}))
	defer srv.Close()

	client := newTestPaymentClient(srv.URL)
	session, err := client.CreateSession(context.Background(), 1, 2, 4900)
	require.NoError(t, err)
	assert.Equal(t, "sess-123", session.SessionID)
	assert.Equal(t, "https://pay.example.com/sess-123", session.RedirectURL)
}

func TestCreateSessionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestPaymentClient(srv.URL)
	_, err := client.CreateSession(context.Background(), 1, 2, 4900)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamUnavailable))
}

func TestCreateSessionProviderUnreachable(t *testing.T) {
	client := newTestPaymentClient("http://127.0.0.1:1")

	_, err := client.CreateSession(context.Background(), 1, 2, 4900)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamUnavailable))
}

func TestCreateSessionMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":""}`))
	}))
	defer srv.Close()

	client := newTestPaymentClient(srv.URL)
	_, err := client.CreateSession(context.Background(), 1, 2, 4900)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamUnavailable))
}

func TestVerifyConfirmation(t *testing.T) {
	client := newTestPaymentClient("http://unused")
	payload := []byte(`{"session_id":"sess-123","paid":true}`)

	conf, err := client.VerifyConfirmation(payload, sign("test-secret", payload))
	require.NoError(t, err)
	assert.Equal(t, "sess-123", conf.SessionID)
	assert.True(t, conf.Paid)
}

func TestVerifyConfirmationBadSignature(t *testing.T) {
	client := newTestPaymentClient("http://unused")
	payload := []byte(`{"session_id":"sess-123","paid":true}`)

	_, err := client.VerifyConfirmation(payload, sign("wrong-secret", payload))
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = client.VerifyConfirmation(payload, "not-hex")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestVerifyConfirmationMalformedPayload(t *testing.T) {
	client := newTestPaymentClient("http://unused")

	payload := []byte(`{"paid":`)
	_, err := client.VerifyConfirmation(payload, sign("test-secret", payload))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	payload = []byte(`{"paid":true}`)
	_, err = client.VerifyConfirmation(payload, sign("test-secret", payload))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "missing session reference")
}

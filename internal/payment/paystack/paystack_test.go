package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInitializeSuccess(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]interface{}{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code":       "abc123",
				"reference":         "POSH-42",
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, SecretKey: "sk_test_secret"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	result, err := client.Initialize(context.Background(), InitializeInput{
		Email:       "buyer@example.com",
		AmountMinor: 28000000,
		Currency:    "NGN",
		Reference:   "POSH-42",
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/abc123" {
		t.Fatalf("unexpected authorization url: %s", result.AuthorizationURL)
	}
	if result.Reference != "POSH-42" {
		t.Fatalf("unexpected reference: %s", result.Reference)
	}
	if gotAuth != "Bearer sk_test_secret" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if gotPath != "/transaction/initialize" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if amount, ok := gotBody["amount"].(float64); !ok || int64(amount) != 28000000 {
		t.Fatalf("unexpected amount in request body: %v", gotBody["amount"])
	}
}

func TestInitializeGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid key",
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, SecretKey: "sk_test_bad"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	_, err = client.Initialize(context.Background(), InitializeInput{
		Email:       "buyer@example.com",
		AmountMinor: 1000,
		Reference:   "POSH-1",
	})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid key") {
		t.Fatalf("expected gateway message in error, got %v", err)
	}
}

func TestVerifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/POSH-42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]interface{}{
				"status":           "success",
				"reference":        "POSH-42",
				"amount":           28000000,
				"currency":         "NGN",
				"channel":          "card",
				"gateway_response": "Successful",
				"paid_at":          "2026-01-02T10:00:00.000Z",
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, SecretKey: "sk_test_secret"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	result, err := client.Verify(context.Background(), "POSH-42")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.Status != ChargeSuccess {
		t.Fatalf("expected success status, got %s", result.Status)
	}
	if result.AmountMinor != 28000000 {
		t.Fatalf("unexpected amount: %d", result.AmountMinor)
	}
	if result.Currency != "NGN" {
		t.Fatalf("unexpected currency: %s", result.Currency)
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "sk_test_secret"
	body := []byte(`{"event":"charge.success","data":{"reference":"POSH-42"}}`)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	if err := VerifySignature(secret, body, signature); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if err := VerifySignature(secret, body, strings.ToUpper(signature)); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected uppercase hex signature to be rejected, got %v", err)
	}
	if err := VerifySignature(secret, body, "deadbeef"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
	if err := VerifySignature(secret, append(body, ' '), signature); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature mismatch on altered body, got %v", err)
	}
	if err := VerifySignature(secret, body, ""); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for empty signature, got %v", err)
	}
}

func TestExtractErrorDetail(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"Invalid key","error":"auth"}`, "Invalid key"},
		{"error", `{"status":false,"error":"Transaction not found"}`, "Transaction not found"},
		{"code", `{"status":false,"code":"transaction_not_found"}`, "transaction_not_found"},
		{"meta reason", `{"status":false,"meta":{"reason":"insufficient balance"}}`, "insufficient balance"},
		{"raw fallback", `<html>Bad Gateway</html>`, "<html>Bad Gateway</html>"},
	}
	for _, tc := range cases {
		if got := extractErrorDetail([]byte(tc.body)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"POSH-42","status":"success","amount":28000000,"currency":"NGN"}}`)
	event, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Event != "charge.success" {
		t.Fatalf("unexpected event: %s", event.Event)
	}
	if event.Data.Reference != "POSH-42" {
		t.Fatalf("unexpected reference: %s", event.Data.Reference)
	}
	if event.Data.Amount != 28000000 {
		t.Fatalf("unexpected amount: %d", event.Data.Amount)
	}

	if _, err := ParseWebhook(nil); err == nil {
		t.Fatalf("expected error for empty body")
	}
	if _, err := ParseWebhook([]byte("not-json")); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestNewClientRequiresSecret(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

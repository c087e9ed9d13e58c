package biometric

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/verification"
)

const FingerprintProvider = "fingerprint"

type FingerprintConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FingerprintVerifier calls the fingerprint matching microservice. The service
// owns the match decision; its score is passed through as confidence.
type FingerprintVerifier struct {
	client   *http.Client
	matchURL string
}

func NewFingerprintVerifier(cfg FingerprintConfig) *FingerprintVerifier {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.APIKey != "" {
		client.Transport = &apiKeyTransport{key: cfg.APIKey, base: http.DefaultTransport}
	}
	return &FingerprintVerifier{
		client:   client,
		matchURL: strings.TrimSuffix(cfg.BaseURL, "/") + "/api/match",
	}
}

type fingerprintRequest struct {
	EmployeeID string `json:"employee_id"`
	Template   string `json:"template"`
}

type fingerprintResponse struct {
	Match   bool    `json:"match"`
	Score   float64 `json:"score"`
	Message string  `json:"message"`
}

func (v *FingerprintVerifier) Verify(ctx context.Context, req verification.Request) (verification.Result, error) {
	var out fingerprintResponse
	if _, err := postJSON(ctx, v.client, FingerprintProvider, v.matchURL, fingerprintRequest{
		EmployeeID: req.EmployeeID,
		Template:   base64.StdEncoding.EncodeToString(req.Sample),
	}, &out); err != nil {
		return verification.Result{}, err
	}

	return verification.Result{
		Matched:    out.Match,
		Confidence: out.Score,
		Message:    out.Message,
		Provider:   FingerprintProvider,
	}, nil
}

type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("X-API-Key", t.key)
	return t.base.RoundTrip(r)
}

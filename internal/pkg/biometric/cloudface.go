package biometric

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/verification"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const CloudFaceProvider = "cloud-face"

type CloudFaceConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// Threshold is the minimum confidence, on the provider's 0-100 scale,
	// for a reported match to count.
	Threshold float64
	Timeout   time.Duration
}

// CloudFaceVerifier compares a face sample with the subject enrolled under the
// employee id, authenticating with OAuth2 client credentials.
type CloudFaceVerifier struct {
	client    *http.Client
	verifyURL string
	threshold float64
}

func NewCloudFaceVerifier(cfg CloudFaceConfig) *CloudFaceVerifier {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}

	// The token endpoint shares the verification timeout.
	base := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = cfg.Timeout

	return &CloudFaceVerifier{
		client:    client,
		verifyURL: strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/faces/verify",
		threshold: cfg.Threshold,
	}
}

type cloudFaceRequest struct {
	SubjectID string `json:"subject_id"`
	Image     string `json:"image"`
}

type cloudFaceResponse struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

func (v *CloudFaceVerifier) Verify(ctx context.Context, req verification.Request) (verification.Result, error) {
	var out cloudFaceResponse
	status, err := postJSON(ctx, v.client, CloudFaceProvider, v.verifyURL, cloudFaceRequest{
		SubjectID: req.EmployeeID,
		Image:     base64.StdEncoding.EncodeToString(req.Sample),
	}, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && status == http.StatusNotFound {
			return verification.Result{
				Matched:  false,
				Message:  "no face enrolled for employee",
				Provider: CloudFaceProvider,
			}, nil
		}
		return verification.Result{}, err
	}

	matched := out.Match && out.Confidence >= v.threshold
	msg := out.Message
	if out.Match && !matched {
		msg = "confidence below threshold"
	}

	return verification.Result{
		Matched:    matched,
		Confidence: out.Confidence,
		Message:    msg,
		Provider:   CloudFaceProvider,
	}, nil
}

package biometric

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/verification"
)

const LocalFaceProvider = "local-face"

type LocalFaceConfig struct {
	BaseURL string
	// MaxDistance is the largest embedding distance accepted as a match.
	MaxDistance float64
	Timeout     time.Duration
}

// LocalFaceVerifier calls the self-hosted embedding service, which answers
// with a distance between the sample and the enrolled embedding.
type LocalFaceVerifier struct {
	client      *http.Client
	verifyURL   string
	maxDistance float64
}

func NewLocalFaceVerifier(cfg LocalFaceConfig) *LocalFaceVerifier {
	return &LocalFaceVerifier{
		client:      &http.Client{Timeout: cfg.Timeout},
		verifyURL:   strings.TrimSuffix(cfg.BaseURL, "/") + "/verify",
		maxDistance: cfg.MaxDistance,
	}
}

type localFaceRequest struct {
	EmployeeID  string `json:"employee_id"`
	ImageBase64 string `json:"image_base64"`
}

type localFaceResponse struct {
	Enrolled bool    `json:"enrolled"`
	Distance float64 `json:"distance"`
	Message  string  `json:"message"`
}

func (v *LocalFaceVerifier) Verify(ctx context.Context, req verification.Request) (verification.Result, error) {
	var out localFaceResponse
	if _, err := postJSON(ctx, v.client, LocalFaceProvider, v.verifyURL, localFaceRequest{
		EmployeeID:  req.EmployeeID,
		ImageBase64: base64.StdEncoding.EncodeToString(req.Sample),
	}, &out); err != nil {
		return verification.Result{}, err
	}

	if !out.Enrolled {
		return verification.Result{
			Matched:  false,
			Message:  "no face enrolled for employee",
			Provider: LocalFaceProvider,
		}, nil
	}

	confidence := 1 - out.Distance
	if confidence < 0 {
		confidence = 0
	}

	return verification.Result{
		Matched:    out.Distance <= v.maxDistance,
		Confidence: confidence,
		Message:    out.Message,
		Provider:   LocalFaceProvider,
	}, nil
}

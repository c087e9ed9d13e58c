package verification

import (
	"context"
	"errors"
)

type SampleType string

const (
	SampleTypeFace        SampleType = "face"
	SampleTypeFingerprint SampleType = "fingerprint"
)

var ErrUnsupportedSampleType = errors.New("no verifier configured for sample type")

type Request struct {
	EmployeeID string
	SampleType SampleType
	Sample     []byte
}

type Result struct {
	Matched    bool
	Confidence float64
	Message    string
	Provider   string
}

// Verifier matches a biometric sample against the employee's enrolled
// template. A returned error means the provider could not answer; a
// non-match is reported through Result.Matched.
type Verifier interface {
	Verify(ctx context.Context, req Request) (Result, error)
}

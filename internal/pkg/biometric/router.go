package biometric

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/metrics"
)

// Router dispatches each request to the verifier configured for its sample
// type and records the outcome.
type Router struct {
	verifiers map[verification.SampleType]route
}

type route struct {
	provider string
	verifier verification.Verifier
}

func NewRouter() *Router {
	return &Router{verifiers: make(map[verification.SampleType]route)}
}

// Handle registers v for sample type t, replacing any earlier registration.
func (r *Router) Handle(t verification.SampleType, provider string, v verification.Verifier) *Router {
	r.verifiers[t] = route{provider: provider, verifier: v}
	return r
}

func (r *Router) Verify(ctx context.Context, req verification.Request) (verification.Result, error) {
	rt, ok := r.verifiers[req.SampleType]
	if !ok {
		return verification.Result{}, fmt.Errorf("%w: %s", verification.ErrUnsupportedSampleType, req.SampleType)
	}

	start := time.Now()
	res, err := rt.verifier.Verify(ctx, req)
	latency := float64(time.Since(start).Milliseconds())

	switch {
	case err != nil:
		metrics.RecordVerification(rt.provider, "error", latency)
	case res.Matched:
		metrics.RecordVerification(rt.provider, "matched", latency)
	default:
		metrics.RecordVerification(rt.provider, "rejected", latency)
	}

	if res.Provider == "" {
		res.Provider = rt.provider
	}
	return res, err
}

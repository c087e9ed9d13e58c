package identity

import (
	"context"
	"errors"
)

var ErrScopeMissing = errors.New("caller scope is missing from context")

// Scope is the caller identity every core call receives explicitly.
// Authorization has already been enforced by the time a Scope exists.
type Scope struct {
	CompanyID  string
	UserID     string
	EmployeeID string
}

type scopeKey struct{}

// WithScope stores the scope on ctx for the HTTP layer. Services never read it
// from ctx; handlers pull it out and pass it as an argument.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func FromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	if !ok || s.CompanyID == "" {
		return Scope{}, ErrScopeMissing
	}
	return s, nil
}

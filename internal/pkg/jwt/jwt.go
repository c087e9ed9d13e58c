package jwt

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrInvalidToken     = errors.New("invalid or expired access token")
	ErrCompanyIDMissing = errors.New("access token carries no company_id")
)

// AccessClaims is the caller identity carried by an access token. Tokens are
// issued by the HRIS auth service; this service only verifies them.
type AccessClaims struct {
	UserID     string
	CompanyID  string
	EmployeeID string
	Role       string
}

type Service interface {
	GenerateAccessToken(claims AccessClaims) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	expDuration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenExpirationTime: expDuration,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}, nil
}

func (j *JWTService) GenerateAccessToken(c AccessClaims) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	claims := map[string]interface{}{
		"user_id":     c.UserID,
		"employee_id": returnValueOrNil(c.EmployeeID),
		"company_id":  returnValueOrNil(c.CompanyID),
		"role":        c.Role,
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ScopeFromClaims turns verified access-token claims into the explicit caller
// scope. Non-access tokens and tokens without a company are rejected.
func ScopeFromClaims(claims map[string]interface{}) (identity.Scope, error) {
	if tokenType, ok := claims["type"].(string); !ok || tokenType != "access" {
		return identity.Scope{}, ErrInvalidToken
	}

	companyID, _ := claims["company_id"].(string)
	if companyID == "" {
		return identity.Scope{}, ErrCompanyIDMissing
	}

	userID, _ := claims["user_id"].(string)
	employeeID, _ := claims["employee_id"].(string)

	return identity.Scope{
		CompanyID:  companyID,
		UserID:     userID,
		EmployeeID: employeeID,
	}, nil
}

func returnValueOrNil(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

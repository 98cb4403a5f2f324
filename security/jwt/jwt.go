package jwt

import (
	"time"

	jwtstd "github.com/golang-jwt/jwt/v5"
)

// TokenError represents JWT token related errors
type TokenError string

func (e TokenError) Error() string {
	return string(e)
}

const (
	DefaultAccessTokenExpire = time.Hour * 2

	ErrNeedTokenProvider = TokenError("cannot sign token without token provider")
	ErrInvalidToken      = TokenError("invalid token")
	ErrTokenParsing      = TokenError("token parsing error")
	ErrMissingSubject    = TokenError("token has no subject")
)

// Payload keys
const (
	KeyUserID      = "user_id"
	KeyRoles       = "roles"
	KeyTenantID    = "tenant_id"
	KeyDepartment  = "department"
	KeyDisplayName = "display_name"
	KeyAvatar      = "avatar"
	KeyYear        = "year"
)

// Token represents the token body
type Token struct {
	JTI     string
	Payload map[string]any
	Subject string
	Expire  time.Duration
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	key    string
	issuer string
}

// NewTokenManager creates a new TokenManager instance
func NewTokenManager(key string, issuer ...string) *TokenManager {
	tm := &TokenManager{key: key}
	if len(issuer) > 0 {
		tm.issuer = issuer[0]
	}
	return tm
}

// validateKey validates the token key
func (jtm *TokenManager) validateKey() error {
	if jtm.key == "" {
		return ErrNeedTokenProvider
	}
	return nil
}

// GenerateToken signs token.
func (jtm *TokenManager) GenerateToken(token *Token) (string, error) {
	if err := jtm.validateKey(); err != nil {
		return "", err
	}
	expire := token.Expire
	if expire == 0 {
		expire = DefaultAccessTokenExpire
	}

	claims := jwtstd.MapClaims{
		"jti":     token.JTI,
		"sub":     token.Subject,
		"payload": token.Payload,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(expire).Unix(),
	}
	if jtm.issuer != "" {
		claims["iss"] = jtm.issuer
	}

	t := jwtstd.NewWithClaims(jwtstd.SigningMethodHS256, claims)
	return t.SignedString([]byte(jtm.key))
}

// GenerateAccessToken generates an access token for subject.
func (jtm *TokenManager) GenerateAccessToken(jti, subject string, payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload[KeyUserID]; !ok {
		payload[KeyUserID] = subject
	}
	if _, ok := payload[KeyRoles]; !ok {
		payload[KeyRoles] = []string{}
	}
	return jtm.GenerateToken(&Token{JTI: jti, Subject: subject, Payload: payload})
}

// ValidateToken validates a JWT token
func (jtm *TokenManager) ValidateToken(tokenString string) (*jwtstd.Token, error) {
	if err := jtm.validateKey(); err != nil {
		return nil, err
	}

	opts := []jwtstd.ParserOption{jwtstd.WithValidMethods([]string{jwtstd.SigningMethodHS256.Alg()})}
	if jtm.issuer != "" {
		opts = append(opts, jwtstd.WithIssuer(jtm.issuer))
	}
	return jwtstd.Parse(tokenString, func(token *jwtstd.Token) (any, error) {
		return []byte(jtm.key), nil
	}, opts...)
}

// DecodeToken decodes a JWT token into its claims
func (jtm *TokenManager) DecodeToken(tokenString string) (map[string]any, error) {
	token, err := jtm.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwtstd.MapClaims)
	if !ok {
		return nil, ErrTokenParsing
	}
	if GetSubjectFromToken(claims) == "" && GetUserIDFromToken(claims) == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

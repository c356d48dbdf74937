package token

import (
	"errors"
	"fmt"
	"time"

	"booking-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PrincipalType selects which secret family signs a credential.
// Admin and customer credentials are never interchangeable.
type PrincipalType string

const (
	TypeAdmin    PrincipalType = "admin"
	TypeCustomer PrincipalType = "customer"
)

// Class is the credential class within a principal type.
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
	ClassStage   Class = "stage"
)

// ErrInvalidToken is the uniform verification failure. Callers must not
// be able to tell a bad signature from an expired token from a wrong
// secret; the underlying cause is carried only for server-side logs.
var ErrInvalidToken = errors.New("invalid or expired token")

// Subject is the minimal payload signed into a credential.
type Subject struct {
	ID       string
	Identity string

	// Remember is only meaningful on stage credentials: it records the
	// "remember me" choice made at the password step so the final token
	// issuance can honor it after OTP verification.
	Remember bool
}

type Claims struct {
	jwt.RegisteredClaims

	PrincipalID   string        `json:"principal_id"`
	Identity      string        `json:"identity,omitempty"`
	Remember      bool          `json:"remember,omitempty"`
	PrincipalType PrincipalType `json:"principal_type"`
	Class         Class         `json:"token_class"`
}

type secretKey struct {
	typ   PrincipalType
	class Class
}

// Manager mints and verifies all credential classes. Secrets are fully
// partitioned per (principal type, class) pair; there is no shared key
// material anywhere.
type Manager struct {
	secrets map[secretKey][]byte
	issuer  string
	ttls    map[Class]time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	secrets := map[secretKey][]byte{
		{TypeAdmin, ClassAccess}:     []byte(cfg.AdminSecrets.Access),
		{TypeAdmin, ClassRefresh}:    []byte(cfg.AdminSecrets.Refresh),
		{TypeAdmin, ClassStage}:      []byte(cfg.AdminSecrets.Stage),
		{TypeCustomer, ClassAccess}:  []byte(cfg.CustomerSecrets.Access),
		{TypeCustomer, ClassRefresh}: []byte(cfg.CustomerSecrets.Refresh),
		{TypeCustomer, ClassStage}:   []byte(cfg.CustomerSecrets.Stage),
	}
	for k, s := range secrets {
		if len(s) == 0 {
			return nil, fmt.Errorf("signing secret missing for %s/%s", k.typ, k.class)
		}
	}
	return &Manager{
		secrets: secrets,
		issuer:  cfg.Issuer,
		ttls: map[Class]time.Duration{
			ClassAccess:  cfg.AccessTokenTTL,
			ClassRefresh: cfg.RefreshTokenTTL,
			ClassStage:   cfg.StageTokenTTL,
		},
	}, nil
}

// TTL reports the validity window configured for a class. Callers use it
// to set cookie max-age alongside the token itself.
func (m *Manager) TTL(class Class) time.Duration {
	return m.ttls[class]
}

// Issue signs a credential for subj and returns it with its validity
// window.
func (m *Manager) Issue(now time.Time, typ PrincipalType, class Class, subj Subject) (string, time.Duration, error) {
	secret, ok := m.secrets[secretKey{typ, class}]
	if !ok {
		return "", 0, fmt.Errorf("no secret for %s/%s", typ, class)
	}
	ttl := m.ttls[class]

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		PrincipalID:   subj.ID,
		Identity:      subj.Identity,
		Remember:      subj.Remember,
		PrincipalType: typ,
		Class:         class,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

// Verify checks signature and validity against the secret keyed by
// (typ, class). Every failure collapses to ErrInvalidToken; errors.Is
// is the only supported check on the result.
func (m *Manager) Verify(tokenString string, typ PrincipalType, class Class, now time.Time) (Claims, error) {
	secret, ok := m.secrets[secretKey{typ, class}]
	if !ok {
		return Claims{}, fmt.Errorf("no secret for %s/%s", typ, class)
	}

	var claims Claims
	// Claims validation runs through the explicit validator below so the
	// caller-supplied clock is authoritative.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if err := jwt.NewValidator(opts...).Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// Claim-level checks back up the secret partition: even under key
	// mishandling a refresh token never passes as an access token.
	if claims.Class != class {
		return Claims{}, fmt.Errorf("%w: token class mismatch", ErrInvalidToken)
	}
	if claims.PrincipalType != typ {
		return Claims{}, fmt.Errorf("%w: principal type mismatch", ErrInvalidToken)
	}
	if claims.PrincipalID == "" {
		return Claims{}, fmt.Errorf("%w: principal id missing", ErrInvalidToken)
	}

	return claims, nil
}

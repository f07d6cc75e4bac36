// Package jwt mints and verifies the HS256 access tokens handed out at login
// and generates the opaque refresh tokens stored next to them.
package jwt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PhoneNumberClaim имя кастомного claim с номером телефона
const PhoneNumberClaim = "phoneNumber"

// Token verification errors
var (
	// ErrExpired indicates that the token expiry is in the past
	ErrExpired = errors.New("token expired")

	// ErrInvalidSignature indicates a forged, malformed or wrongly signed token
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claims represents the decoded content of an access token
type Claims struct {
	ExpiresAt time.Time
	IssuedAt  time.Time
	Values    map[string]any // все claims из payload, включая phoneNumber
	Subject   string         // номер телефона
}

// PhoneNumber возвращает кастомный claim phoneNumber
func (c *Claims) PhoneNumber() string {
	v, _ := c.Values[PhoneNumberClaim].(string)
	return v
}

// Signer provides access token generation and validation
type Signer struct {
	now             func() time.Time
	issuer          string
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewSigner creates a new token signer.
// secretBase64 is the base64 (standard alphabet) encoded HMAC key.
func NewSigner(secretBase64, issuer string, accessTokenTTL, refreshTokenTTL time.Duration) (*Signer, error) {
	secret, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode jwt secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt secret cannot be empty")
	}

	return &Signer{
		secret:          secret,
		issuer:          issuer,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		now:             time.Now,
	}, nil
}

// WithClock подменяет источник времени (для тестов)
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// AccessTokenTTL returns the configured access token lifetime
func (s *Signer) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime
func (s *Signer) RefreshTokenTTL() time.Duration {
	return s.refreshTokenTTL
}

// Mint creates a signed token for subject that expires after ttl.
// Extra claims are copied into the payload; subject is also stored as phoneNumber.
func (s *Signer) Mint(subject string, extra map[string]any, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := gojwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims[PhoneNumberClaim] = subject
	claims["sub"] = subject
	claims["iat"] = gojwt.NewNumericDate(now)
	claims["exp"] = gojwt.NewNumericDate(expiresAt)
	// jti делает токены, выпущенные в одну секунду, различимыми
	claims["jti"] = uuid.NewString()
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// GenerateAccessToken mints an access token for a phone number using the configured TTL
func (s *Signer) GenerateAccessToken(phoneNumber string) (string, time.Time, error) {
	return s.Mint(phoneNumber, nil, s.accessTokenTTL)
}

// Verify validates signature and expiry and returns the decoded claims
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := gojwt.MapClaims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return decodeClaims(claims)
}

// IsExpired decodes the token (signature is still checked) and compares its
// expiry to the current time without applying any other claim validation.
func (s *Signer) IsExpired(tokenString string) (bool, error) {
	claims := gojwt.MapClaims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, fmt.Errorf("%w: missing exp claim", ErrInvalidSignature)
	}

	return !s.now().Before(exp.Time), nil
}

// GenerateRefreshToken creates a new random refresh token and its expiry
func (s *Signer) GenerateRefreshToken() (string, time.Time, error) {
	// Генерируем случайные 32 байта
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate random token: %w", err)
	}

	// Кодируем в base64
	token := base64.RawURLEncoding.EncodeToString(tokenBytes)
	expiresAt := s.now().Add(s.refreshTokenTTL)

	return token, expiresAt, nil
}

// keyFunc проверяет алгоритм и возвращает ключ подписи
func (s *Signer) keyFunc(token *gojwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}

func decodeClaims(claims gojwt.MapClaims) (*Claims, error) {
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidSignature)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidSignature)
	}

	result := &Claims{
		Subject:   subject,
		ExpiresAt: exp.Time,
		Values:    map[string]any(claims),
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}

	return result, nil
}

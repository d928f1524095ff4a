package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const tokenIDLength = 16 // bytes, hex encoded on the wire

// Claims is the payload carried by a session token. UserID, Email and Role
// are set by the caller on Issue; TokenID and ExpiresAt are populated by
// Verify from the decoded token.
type Claims struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Codec signs and verifies session tokens with a single process-wide HMAC
// secret. The secret is injected at construction and never rotated; a
// leaked token stays valid until its expiry because there is no revocation
// list.
type Codec struct {
	secret  []byte
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(secret []byte, options ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("[NewCodec] signing secret is required")
	}

	c := &Codec{
		secret:  secret,
		nowFunc: time.Now,
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// Issue serializes the claims with an expiry of now+ttl and a fresh token
// ID, signs them and returns the encoded token string.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	jti, err := newTokenID()
	if err != nil {
		return "", err
	}

	now := c.nowFunc()
	mapClaims := jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"role":  claims.Role,
		"iat":   now.Unix(),          // Issued At: the time at which the token was issued
		"exp":   now.Add(ttl).Unix(), // Expiry: when the token will expire
		"jti":   jti,                 // Unique token ID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Issue] SignedString")
	}
	return signed, nil
}

// Verify decodes the token, checks the signature and expiry, and returns
// the original claims. Failures map onto ErrMalformed, ErrInvalidSignature
// and ErrExpired.
func (c *Codec) Verify(rawToken string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	sub, _ := mapClaims["sub"].(string)
	email, _ := mapClaims["email"].(string)
	role, _ := mapClaims["role"].(string)
	jti, _ := mapClaims["jti"].(string)
	exp, _ := mapClaims["exp"].(float64)

	if sub == "" {
		return nil, ErrMalformed
	}

	return &Claims{
		UserID:    sub,
		Email:     email,
		Role:      role,
		TokenID:   jti,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

func newTokenID() (string, error) {
	bytes := make([]byte, tokenIDLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[newTokenID] rand.Read")
	}
	return hex.EncodeToString(bytes), nil
}

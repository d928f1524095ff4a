package config

import "time"

const signingSecretEnvVar = "AUTH_SIGNING_SECRET"

type AuthConfig interface {
	GetSigningSecret() []byte
	GetSessionTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type Auth struct {
	SigningSecret      string        `env:"AUTH_SIGNING_SECRET"`
	SessionTokenExpiry time.Duration `env:"SESSION_TOKEN_EXPIRY" envDefault:"1h"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
}

var _ AuthConfig = Auth{}

func (a Auth) GetSigningSecret() []byte {
	return []byte(a.SigningSecret)
}

func (a Auth) GetSessionTokenExpiry() time.Duration {
	return a.SessionTokenExpiry
}

func (a Auth) GetRefreshTokenExpiry() time.Duration {
	return a.RefreshTokenExpiry
}

func (Auth) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

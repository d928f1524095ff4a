package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/schooldesk/auth-server/roles"
	"github.com/schooldesk/auth-server/token"
	"github.com/schooldesk/auth-server/token/refresh"
	"github.com/schooldesk/auth-server/users"
)

// DefaultSessionTokenExpiry is the session token lifetime.
const DefaultSessionTokenExpiry = time.Hour

// Repos holds the collaborator repositories for the Service.
type Repos struct {
	Users users.Repo // Repository for identity records
	Roles roles.Repo // Repository for role and permission data
}

// TokenPair is returned by Login: a signed session token plus the opaque
// refresh token that can mint new session tokens until it expires.
type TokenPair struct {
	SessionToken string
	RefreshToken string
}

// Service orchestrates login, token issuance, refresh and request
// authorization. It is stateless per call: every request may run
// concurrently with any other, all persistent state lives in the repos.
type Service struct {
	repos         Repos
	codec         *token.Codec
	refreshTokens *refresh.Manager
	sessionExpiry time.Duration
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithSessionTokenExpiry overrides the session token lifetime.
func WithSessionTokenExpiry(expiry time.Duration) ServiceOption {
	return func(s *Service) {
		s.sessionExpiry = expiry
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, codec *token.Codec, refreshTokens *refresh.Manager, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Roles == nil {
		return nil, errors.New("[NewService] Roles repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] codec is required")
	}
	if refreshTokens == nil {
		return nil, errors.New("[NewService] refreshTokens is required")
	}

	service := &Service{
		repos:         repos,
		codec:         codec,
		refreshTokens: refreshTokens,
		sessionExpiry: DefaultSessionTokenExpiry,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Login checks the credentials and returns a fresh token pair. Unknown
// email and wrong password both return ErrInvalidCredentials, so the
// response does not reveal which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	sessionToken, err := s.issueSessionToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] issueSessionToken")
	}

	refreshToken, err := s.refreshTokens.Create(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] refreshTokens.Create")
	}

	return &TokenPair{
		SessionToken: sessionToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh resolves the refresh token and issues a new session token
// carrying the user's current claims. The refresh token value itself is
// not rotated; it keeps working until expiry or logout.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.refreshTokens.FindValid(ctx, refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	sessionToken, err := s.issueSessionToken(user)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Refresh] issueSessionToken")
	}
	return sessionToken, nil
}

// Authorize verifies a session token and, when requiredPermission is
// non-empty, checks the token's role against the role's permission set.
// Verification failures return ErrUnauthenticated wrapping the codec
// error; permission failures return ErrForbidden.
func (s *Service) Authorize(ctx context.Context, rawToken string, requiredPermission roles.PermissionName) (*token.Claims, error) {
	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if requiredPermission == "" {
		return claims, nil
	}

	permissions, err := s.repos.Roles.PermissionsForRole(ctx, claims.Role)
	if err != nil {
		return nil, ErrForbidden
	}
	if !permissions.Contains(requiredPermission) {
		return nil, ErrForbidden
	}

	return claims, nil
}

// Logout revokes the refresh token. The session token stays valid until
// it expires; there is no revocation list for session tokens.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokens.Revoke(ctx, refreshToken); err != nil {
		return errors.Wrap(err, "[Service.Logout] refreshTokens.Revoke")
	}
	return nil
}

func (s *Service) issueSessionToken(user *users.User) (string, error) {
	return s.codec.Issue(token.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.RoleID,
	}, s.sessionExpiry)
}

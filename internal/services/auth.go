package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/models"
	"connexa-backend/internal/token"

	"github.com/rs/zerolog/log"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

const minPasswordLength = 8

// CredentialGateway verifies and registers identities. The concrete
// implementation calls the database stored procedures.
type CredentialGateway interface {
	VerifyLogin(ctx context.Context, email, password string) (*models.AuthUser, error)
	Register(ctx context.Context, email, password, role string) (*models.AuthUser, error)
}

// AuthService handles registration and login and issues session tokens.
type AuthService struct {
	gateway CredentialGateway
	codec   *token.Codec
}

// NewAuthService creates a new auth service
func NewAuthService(gateway CredentialGateway, codec *token.Codec) *AuthService {
	return &AuthService{
		gateway: gateway,
		codec:   codec,
	}
}

// AuthResult is the identity plus its freshly issued session token.
type AuthResult struct {
	User  token.Identity `json:"user"`
	Token string         `json:"token"`
}

// Register validates the new credentials, creates the identity through
// the gateway and issues a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, apperrors.New(apperrors.CodeValidation, "Invalid email")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.New(apperrors.CodeValidation, "Password too short")
	}
	if role == "" {
		role = string(token.RoleUser)
	}
	if _, ok := token.ParseRole(role); !ok {
		return nil, apperrors.New(apperrors.CodeValidation, "Invalid role")
	}

	row, err := s.gateway.Register(ctx, email, password, role)
	if err != nil {
		return nil, err
	}
	return s.issueFor(row)
}

// Login verifies credentials through the gateway and issues a token.
// The error never reveals whether the email existed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) || password == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "Invalid email or password format")
	}

	row, err := s.gateway.VerifyLogin(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issueFor(row)
}

func (s *AuthService) issueFor(row *models.AuthUser) (*AuthResult, error) {
	role, ok := token.ParseRole(row.Role)
	if !ok {
		// The role column is constrained to the enum; a row outside it
		// means the gateway contract is broken.
		log.Error().Str("role", row.Role).Str("user_id", row.ID).Msg("Gateway returned invalid role")
		return nil, apperrors.New(apperrors.CodeRPC, "Unexpected identity role")
	}

	identity := token.Identity{
		UserID: row.ID,
		Email:  row.Email,
		Role:   role,
	}
	signed, err := s.codec.Issue(identity)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeServer, "Failed to issue token", fmt.Errorf("issue token: %w", err))
	}

	return &AuthResult{User: identity, Token: signed}, nil
}

// ValidEmail reports whether raw looks like an email address after
// trimming and lowercasing.
func ValidEmail(raw string) bool {
	return emailPattern.MatchString(strings.TrimSpace(raw))
}

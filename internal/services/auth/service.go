package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curator/console/internal/identity"
	"github.com/curator/console/internal/refdata"
	"github.com/curator/console/pkg/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotOperator        = errors.New("not an active operator")
	ErrAlreadyEnrolled    = errors.New("operator already enrolled")
	ErrNotEnrolled        = errors.New("operator not enrolled")
	ErrInvalid2FA         = errors.New("invalid 2FA code")
)

// Service authenticates console operators. Only ids on the active operator
// list can enroll or log in; everything else about an operator comes from
// the reference configuration, so the store keeps credentials only.
type Service struct {
	db         *pgxpool.Pool
	ref        *refdata.Config
	resolver   *identity.Resolver
	jwtSecret  string
	sessionTTL time.Duration
}

func NewService(db *pgxpool.Pool, ref *refdata.Config, resolver *identity.Resolver, jwtSecret string, sessionTTL time.Duration) *Service {
	return &Service{
		db:         db,
		ref:        ref,
		resolver:   resolver,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
	}
}

type EnrollRequest struct {
	OperatorID string `json:"uid" validate:"required,qqnum"`
	Password   string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	OperatorID string `json:"uid" validate:"required,qqnum"`
	Password   string `json:"password" validate:"required"`
	TOTPCode   string `json:"totpCode,omitempty"`
}

type AuthResponse struct {
	OperatorID  string         `json:"uid"`
	Nickname    string         `json:"nickname"`
	Badge       identity.Badge `json:"badge"`
	Token       string         `json:"token,omitempty"`
	ExpiresAt   time.Time      `json:"expiresAt,omitempty"`
	Requires2FA bool           `json:"requires2FA,omitempty"`
}

// Enroll stores first-time credentials for an active operator.
func (s *Service) Enroll(ctx context.Context, req *EnrollRequest) error {
	if !s.ref.IsActiveOperator(req.OperatorID) {
		return ErrNotOperator
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM operator_credentials WHERE operator_id = $1)`,
		req.OperatorID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyEnrolled
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO operator_credentials (operator_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())`,
		req.OperatorID, hash,
	)
	return err
}

// Login verifies an operator's password (and 2FA code, when enrolled) and
// issues a session token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if !s.ref.IsActiveOperator(req.OperatorID) {
		return nil, ErrNotOperator
	}

	var passwordHash string
	var totpSecret *string
	var totpEnabled bool
	err := s.db.QueryRow(ctx,
		`SELECT password_hash, totp_secret, totp_enabled
		FROM operator_credentials WHERE operator_id = $1`,
		req.OperatorID,
	).Scan(&passwordHash, &totpSecret, &totpEnabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(req.Password, passwordHash) {
		return nil, ErrInvalidCredentials
	}

	if totpEnabled {
		if req.TOTPCode == "" {
			return &AuthResponse{Requires2FA: true}, nil
		}
		if totpSecret == nil || !auth.ValidateTOTP(req.TOTPCode, *totpSecret) {
			return nil, ErrInvalid2FA
		}
	}

	nickname, _ := s.resolver.Nickname(identity.KindOperator, req.OperatorID)
	session, err := auth.GenerateSession(req.OperatorID, nickname, s.jwtSecret, s.sessionTTL)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(ctx,
		`UPDATE operator_credentials SET last_login_at = NOW() WHERE operator_id = $1`,
		req.OperatorID,
	)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		OperatorID: req.OperatorID,
		Nickname:   nickname,
		Badge:      s.resolver.ResolveBadge(req.OperatorID),
		Token:      session.Token,
		ExpiresAt:  session.ExpiresAt,
	}, nil
}

// Whoami resolves the session operator's identity for the console header.
func (s *Service) Whoami(operatorID string) *AuthResponse {
	nickname, _ := s.resolver.Nickname(identity.KindOperator, operatorID)
	return &AuthResponse{
		OperatorID: operatorID,
		Nickname:   nickname,
		Badge:      s.resolver.ResolveBadge(operatorID),
	}
}

// ChangePassword swaps an operator's password after verifying the current
// one.
func (s *Service) ChangePassword(ctx context.Context, operatorID, currentPassword, newPassword string) error {
	var passwordHash string
	err := s.db.QueryRow(ctx,
		`SELECT password_hash FROM operator_credentials WHERE operator_id = $1`,
		operatorID,
	).Scan(&passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotEnrolled
		}
		return err
	}

	if !auth.VerifyPassword(currentPassword, passwordHash) {
		return ErrInvalidCredentials
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`UPDATE operator_credentials SET password_hash = $1, updated_at = NOW() WHERE operator_id = $2`,
		newHash, operatorID,
	)
	return err
}

// 2FA Management

type Enable2FAResponse struct {
	Secret string `json:"secret"`
	OTPURI string `json:"otpUri"`
}

func (s *Service) Enable2FA(ctx context.Context, operatorID string) (*Enable2FAResponse, error) {
	secret, err := auth.GenerateTOTPSecret()
	if err != nil {
		return nil, err
	}

	// Store secret temporarily (not enabled until verified)
	tag, err := s.db.Exec(ctx,
		`UPDATE operator_credentials SET totp_secret = $1 WHERE operator_id = $2`,
		secret, operatorID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotEnrolled
	}

	nickname, _ := s.resolver.Nickname(identity.KindOperator, operatorID)
	return &Enable2FAResponse{
		Secret: secret,
		OTPURI: auth.GenerateTOTPURI(secret, nickname, "Curator Console"),
	}, nil
}

func (s *Service) Verify2FA(ctx context.Context, operatorID, code string) error {
	var secret *string
	err := s.db.QueryRow(ctx,
		`SELECT totp_secret FROM operator_credentials WHERE operator_id = $1`,
		operatorID,
	).Scan(&secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotEnrolled
		}
		return err
	}
	if secret == nil {
		return errors.New("2FA not set up")
	}

	if !auth.ValidateTOTP(code, *secret) {
		return ErrInvalid2FA
	}

	_, err = s.db.Exec(ctx,
		`UPDATE operator_credentials SET totp_enabled = TRUE WHERE operator_id = $1`,
		operatorID,
	)
	return err
}

func (s *Service) Disable2FA(ctx context.Context, operatorID, password, code string) error {
	var passwordHash string
	var secret *string
	err := s.db.QueryRow(ctx,
		`SELECT password_hash, totp_secret FROM operator_credentials WHERE operator_id = $1`,
		operatorID,
	).Scan(&passwordHash, &secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotEnrolled
		}
		return err
	}

	if !auth.VerifyPassword(password, passwordHash) {
		return ErrInvalidCredentials
	}
	if secret != nil && !auth.ValidateTOTP(code, *secret) {
		return ErrInvalid2FA
	}

	_, err = s.db.Exec(ctx,
		`UPDATE operator_credentials SET totp_enabled = FALSE, totp_secret = NULL WHERE operator_id = $1`,
		operatorID,
	)
	return err
}

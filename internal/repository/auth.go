package repository

import (
	"context"
	"errors"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthRepository is the credential gateway. Password hashing and
// verification live in the database behind the verify_login and
// register_user stored procedures; this side never sees a hash.
type AuthRepository struct {
	db *pgxpool.Pool
}

// NewAuthRepository creates a new auth repository
func NewAuthRepository(db *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{db: db}
}

// internalSQLState reports whether a SQLSTATE indicates a broken or
// misconfigured procedure (missing pgcrypto, ambiguous column, bad
// grants) rather than an expected outcome.
func internalSQLState(code string) bool {
	switch code {
	case "42883", // undefined_function: pgcrypto crypt/gen_salt missing
		"42702", // ambiguous_column
		"42601", // syntax_error
		"42501", // insufficient_privilege
		"3F000": // invalid_schema_name
		return true
	default:
		return false
	}
}

// VerifyLogin calls the verify_login procedure. A credential mismatch and
// an unknown email are indistinguishable to the caller: both return
// AUTH_FAILED. Procedure misconfiguration surfaces as RPC_ERROR with the
// cause preserved for server-side logs only.
func (r *AuthRepository) VerifyLogin(ctx context.Context, email, password string) (*models.AuthUser, error) {
	query := `SELECT user_id, email, role FROM verify_login($1, $2)`

	var user models.AuthUser
	err := r.db.QueryRow(ctx, query, email, password).Scan(&user.ID, &user.Email, &user.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.CodeAuthFailed, "Invalid credentials")
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if internalSQLState(pgErr.Code) {
				return nil, apperrors.Wrap(apperrors.CodeRPC, "Authentication service error", err)
			}
			return nil, apperrors.Wrap(apperrors.CodeAuthFailed, "Invalid credentials", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeDB, "Authentication service unavailable", err)
	}

	if user.ID == "" {
		return nil, apperrors.New(apperrors.CodeAuthFailed, "Invalid credentials")
	}
	return &user, nil
}

// Register calls the register_user procedure. A duplicate email is a
// CONFLICT; anything that points at a broken procedure is RPC_ERROR.
func (r *AuthRepository) Register(ctx context.Context, email, password, role string) (*models.AuthUser, error) {
	query := `SELECT user_id, email, role FROM register_user($1, $2, $3)`

	var user models.AuthUser
	err := r.db.QueryRow(ctx, query, email, password, role).Scan(&user.ID, &user.Email, &user.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return nil, apperrors.Wrap(apperrors.CodeConflict, "Email already registered", err)
			}
			if internalSQLState(pgErr.Code) {
				return nil, apperrors.Wrap(apperrors.CodeRPC, "Registration service error", err)
			}
		}
		return nil, apperrors.Wrap(apperrors.CodeDB, "Failed to register user", err)
	}

	if user.ID == "" || user.Email == "" || user.Role == "" {
		return nil, apperrors.New(apperrors.CodeRPC, "Unexpected response from register_user")
	}
	return &user, nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellae/stellae-api/internal/domain"
	"github.com/stellae/stellae-api/internal/service"
	"github.com/stellae/stellae-api/internal/service/auth"
	"github.com/stellae/stellae-api/internal/store"
)

// mockUserService implements service.UserService for handler tests.
type mockUserService struct {
	getFn    func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	createFn func(ctx context.Context, email, password string) (*domain.User, error)
	authFn   func(ctx context.Context, email, password string) (*domain.User, error)
}

func (m *mockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.getFn(ctx, userID)
}

func (m *mockUserService) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	return m.createFn(ctx, email, password)
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	return m.authFn(ctx, email, password)
}

var _ service.UserService = (*mockUserService)(nil)

// mockJWTService implements auth.JWTService with canned results.
type mockJWTService struct {
	accessToken   string
	refreshToken  string
	generateErr   error
	validateFn    func(ctx context.Context, tokenString string) (*auth.Claims, error)
	validateRefFn func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.accessToken, nil
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.refreshToken, nil
}

func (m *mockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return m.validateFn(ctx, tokenString)
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return m.validateRefFn(ctx, tokenString)
}

var _ auth.JWTService = (*mockJWTService)(nil)

const testTokenLifetime = time.Hour

func postJSON(t *testing.T, handlerFn http.HandlerFunc, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handlerFn(rr, req)
	return rr
}

func TestRegister(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	jwtService := &mockJWTService{accessToken: "access-token", refreshToken: "refresh-token"}

	t.Run("success returns 201 with token pair", func(t *testing.T) {
		t.Parallel()

		userService := &mockUserService{
			createFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				assert.Equal(t, "new@example.com", email)
				return &domain.User{ID: userID, Email: email}, nil
			},
		}
		handler := NewAuthHandler(userService, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "new@example.com",
			Password: "a-long-enough-password",
		})

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, userID, resp.UserID)
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, "refresh-token", resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		t.Parallel()

		userService := &mockUserService{
			createFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				return nil, store.ErrEmailExists
			},
		}
		handler := NewAuthHandler(userService, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "taken@example.com",
			Password: "a-long-enough-password",
		})

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&mockUserService{}, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "new@example.com",
			Password: "short",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid email fails validation", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&mockUserService{}, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "not-an-email",
			Password: "a-long-enough-password",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("token generation failure returns 500", func(t *testing.T) {
		t.Parallel()

		userService := &mockUserService{
			createFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				return &domain.User{ID: userID, Email: email}, nil
			},
		}
		failingJWT := &mockJWTService{generateErr: assert.AnError}
		handler := NewAuthHandler(userService, failingJWT, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "new@example.com",
			Password: "a-long-enough-password",
		})

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	jwtService := &mockJWTService{accessToken: "access-token", refreshToken: "refresh-token"}

	t.Run("success returns 200 with token pair", func(t *testing.T) {
		t.Parallel()

		userService := &mockUserService{
			authFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				assert.Equal(t, "user@example.com", email)
				assert.Equal(t, "correct-password", password)
				return &domain.User{ID: userID, Email: email}, nil
			},
		}
		handler := NewAuthHandler(userService, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "user@example.com",
			Password: "correct-password",
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, userID, resp.UserID)
		assert.Equal(t, "access-token", resp.AccessToken)
	})

	t.Run("wrong credentials return 401", func(t *testing.T) {
		t.Parallel()

		userService := &mockUserService{
			authFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				return nil, auth.ErrInvalidCredentials
			},
		}
		handler := NewAuthHandler(userService, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "user@example.com",
			Password: "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid credentials", resp["error"])
	})

	t.Run("unknown email also returns 401", func(t *testing.T) {
		t.Parallel()

		userService := &mockUserService{
			authFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				return nil, auth.ErrInvalidCredentials
			},
		}
		handler := NewAuthHandler(userService, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "nobody@example.com",
			Password: "whatever-password",
		})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("valid refresh token returns new pair", func(t *testing.T) {
		t.Parallel()

		jwtService := &mockJWTService{
			accessToken:  "new-access",
			refreshToken: "new-refresh",
			validateRefFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
				assert.Equal(t, "old-refresh", tokenString)
				return &auth.Claims{UserID: userID, TokenType: "refresh"}, nil
			},
		}
		userService := &mockUserService{
			getFn: func(ctx context.Context, gotUserID uuid.UUID) (*domain.User, error) {
				assert.Equal(t, userID, gotUserID)
				return &domain.User{ID: gotUserID, Email: "user@example.com"}, nil
			},
		}
		handler := NewAuthHandler(userService, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
			RefreshToken: "old-refresh",
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp RefreshTokenResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "new-access", resp.AccessToken)
		assert.Equal(t, "new-refresh", resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)
	})

	t.Run("expired refresh token returns 401", func(t *testing.T) {
		t.Parallel()

		jwtService := &mockJWTService{
			validateRefFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
				return nil, auth.ErrExpiredRefreshToken
			},
		}
		handler := NewAuthHandler(&mockUserService{}, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
			RefreshToken: "expired-refresh",
		})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("deleted user returns 401", func(t *testing.T) {
		t.Parallel()

		jwtService := &mockJWTService{
			validateRefFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
				return &auth.Claims{UserID: userID, TokenType: "refresh"}, nil
			},
		}
		userService := &mockUserService{
			getFn: func(ctx context.Context, gotUserID uuid.UUID) (*domain.User, error) {
				return nil, store.ErrUserNotFound
			},
		}
		handler := NewAuthHandler(userService, jwtService, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
			RefreshToken: "orphan-refresh",
		})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing refresh token fails validation", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&mockUserService{}, &mockJWTService{}, testTokenLifetime, testLogger())

		rr := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

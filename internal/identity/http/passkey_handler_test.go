package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
	"github.com/sealkeep/sealkeep/internal/identity/domain"
	identityUseCase "github.com/sealkeep/sealkeep/internal/identity/usecase"
)

// MockPasskeyUseCase is a mock implementation of usecase.PasskeyUseCase
type MockPasskeyUseCase struct {
	mock.Mock
}

func (m *MockPasskeyUseCase) BeginRegistration(ctx context.Context, userID uuid.UUID, prfSalt []byte) (*protocol.CredentialCreation, error) {
	args := m.Called(ctx, userID, prfSalt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*protocol.CredentialCreation), args.Error(1)
}

func (m *MockPasskeyUseCase) FinishRegistration(ctx context.Context, userID uuid.UUID, request *http.Request) (*domain.PasskeyCredential, error) {
	args := m.Called(ctx, userID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PasskeyCredential), args.Error(1)
}

func (m *MockPasskeyUseCase) BeginLogin(ctx context.Context, email string, prfSalt []byte) (*protocol.CredentialAssertion, error) {
	args := m.Called(ctx, email, prfSalt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*protocol.CredentialAssertion), args.Error(1)
}

func (m *MockPasskeyUseCase) FinishLogin(ctx context.Context, email string, request *http.Request) (*domain.User, error) {
	args := m.Called(ctx, email, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockPasskeyUseCase) GetPRFParams(ctx context.Context, userID uuid.UUID) (*domain.PRFParamsRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PRFParamsRecord), args.Error(1)
}

func (m *MockPasskeyUseCase) UpsertPRFParams(ctx context.Context, input identityUseCase.UpsertPRFParamsInput) (*domain.PRFParamsRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PRFParamsRecord), args.Error(1)
}

func setupPasskeyRouter(useCase identityUseCase.PasskeyUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewPasskeyHandler(useCase, slog.New(slog.DiscardHandler))

	router := gin.New()
	router.POST("/v1/auth/passkey/register/begin", handler.BeginRegistrationHandler)
	router.POST("/v1/auth/passkey/register/finish", handler.FinishRegistrationHandler)
	router.POST("/v1/auth/passkey/login/begin", handler.BeginLoginHandler)
	router.POST("/v1/auth/passkey/login/finish", handler.FinishLoginHandler)
	router.GET("/v1/auth/prf-params", handler.GetPRFParamsHandler)
	router.PUT("/v1/auth/prf-params", handler.UpsertPRFParamsHandler)
	return router
}

func TestBeginRegistrationHandler(t *testing.T) {
	t.Run("passes decoded PRF salt through", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		userID := uuid.Must(uuid.NewV7())
		salt := bytes.Repeat([]byte{0xA5}, 32)
		useCase.On("BeginRegistration", mock.Anything, userID, salt).
			Return(&protocol.CredentialCreation{}, nil)

		recorder := postJSON(t, setupPasskeyRouter(useCase), "/v1/auth/passkey/register/begin",
			gin.H{
				"user_id":  userID.String(),
				"prf_salt": base64.StdEncoding.EncodeToString(salt),
			})

		require.Equal(t, http.StatusOK, recorder.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("unverified email maps to forbidden", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		userID := uuid.Must(uuid.NewV7())
		useCase.On("BeginRegistration", mock.Anything, userID, []byte(nil)).
			Return(nil, domain.ErrGeoConfirmationRequired)

		recorder := postJSON(t, setupPasskeyRouter(useCase), "/v1/auth/passkey/register/begin",
			gin.H{"user_id": userID.String()})

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("invalid user_id rejected", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		recorder := postJSON(t, setupPasskeyRouter(useCase), "/v1/auth/passkey/register/begin",
			gin.H{"user_id": "not-a-uuid"})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestFinishRegistrationHandler(t *testing.T) {
	t.Run("persists the credential", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		userID := uuid.Must(uuid.NewV7())
		credential := &domain.PasskeyCredential{
			ID:           uuid.Must(uuid.NewV7()),
			UserID:       userID,
			CredentialID: []byte("credential-id"),
			CreatedAt:    time.Now().UTC(),
		}
		useCase.On("FinishRegistration", mock.Anything, userID, mock.Anything).
			Return(credential, nil)

		recorder := postJSON(t, setupPasskeyRouter(useCase),
			"/v1/auth/passkey/register/finish?user_id="+userID.String(),
			gin.H{"id": "attestation-goes-here"})

		require.Equal(t, http.StatusCreated, recorder.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, base64.RawURLEncoding.EncodeToString([]byte("credential-id")), response["credential_id"])
	})

	t.Run("missing user_id rejected", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		recorder := postJSON(t, setupPasskeyRouter(useCase),
			"/v1/auth/passkey/register/finish", gin.H{})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestBeginLoginHandler(t *testing.T) {
	t.Run("account without credentials maps to not found", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		useCase.On("BeginLogin", mock.Anything, "user@example.com", []byte(nil)).
			Return(nil, domain.ErrCredentialNotFound)

		recorder := postJSON(t, setupPasskeyRouter(useCase), "/v1/auth/passkey/login/begin",
			gin.H{"email": "user@example.com"})

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("cached salt rides along", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		salt := bytes.Repeat([]byte{0x42}, 32)
		useCase.On("BeginLogin", mock.Anything, "user@example.com", salt).
			Return(&protocol.CredentialAssertion{}, nil)

		recorder := postJSON(t, setupPasskeyRouter(useCase), "/v1/auth/passkey/login/begin",
			gin.H{
				"email":    "user@example.com",
				"prf_salt": base64.StdEncoding.EncodeToString(salt),
			})

		require.Equal(t, http.StatusOK, recorder.Code)
		useCase.AssertExpectations(t)
	})
}

func TestFinishLoginHandler(t *testing.T) {
	t.Run("returns the authenticated user", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		user := &domain.User{ID: uuid.Must(uuid.NewV7()), Email: "user@example.com"}
		useCase.On("FinishLogin", mock.Anything, "user@example.com", mock.Anything).
			Return(user, nil)

		recorder := postJSON(t, setupPasskeyRouter(useCase),
			"/v1/auth/passkey/login/finish?email=user@example.com",
			gin.H{"id": "assertion-goes-here"})

		require.Equal(t, http.StatusOK, recorder.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, user.ID.String(), response["id"])
	})

	t.Run("failed ceremony maps to unauthorized", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		useCase.On("FinishLogin", mock.Anything, "user@example.com", mock.Anything).
			Return(nil, domain.ErrCeremonyNotFound)

		recorder := postJSON(t, setupPasskeyRouter(useCase),
			"/v1/auth/passkey/login/finish?email=user@example.com",
			gin.H{"id": "assertion-goes-here"})

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestGetPRFParamsHandler(t *testing.T) {
	t.Run("returns the wire shape", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		userID := uuid.Must(uuid.NewV7())
		record := &domain.PRFParamsRecord{
			UserID:       userID,
			Salt:         bytes.Repeat([]byte{0x01}, 32),
			CredentialID: []byte("credential-id"),
			Version:      3,
		}
		useCase.On("GetPRFParams", mock.Anything, userID).Return(record, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/auth/prf-params?user_id="+userID.String(), nil)
		recorder := httptest.NewRecorder()
		setupPasskeyRouter(useCase).ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, base64.StdEncoding.EncodeToString(record.Salt), response["salt"])
		assert.Equal(t, base64.RawURLEncoding.EncodeToString(record.CredentialID), response["credential_id"])
		assert.Equal(t, float64(3), response["version"])
	})

	t.Run("absent params map to not found", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		userID := uuid.Must(uuid.NewV7())
		useCase.On("GetPRFParams", mock.Anything, userID).
			Return(nil, domain.ErrPRFParamsNotFound)

		req := httptest.NewRequest(http.MethodGet, "/v1/auth/prf-params?user_id="+userID.String(), nil)
		recorder := httptest.NewRecorder()
		setupPasskeyRouter(useCase).ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestUpsertPRFParamsHandler(t *testing.T) {
	putJSON := func(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
		t.Helper()
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPut, "/v1/auth/prf-params", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		return recorder
	}

	t.Run("decodes and stores", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		userID := uuid.Must(uuid.NewV7())
		salt := bytes.Repeat([]byte{0x07}, 32)
		credentialID := []byte("credential-id")
		record := &domain.PRFParamsRecord{
			UserID:       userID,
			Salt:         salt,
			CredentialID: credentialID,
			Version:      1,
		}
		useCase.On("UpsertPRFParams", mock.Anything, identityUseCase.UpsertPRFParamsInput{
			UserID:       userID,
			Salt:         salt,
			CredentialID: credentialID,
			Version:      1,
		}).Return(record, nil)

		recorder := putJSON(t, setupPasskeyRouter(useCase), gin.H{
			"user_id":       userID.String(),
			"salt":          base64.StdEncoding.EncodeToString(salt),
			"credential_id": base64.RawURLEncoding.EncodeToString(credentialID),
			"version":       1,
		})

		require.Equal(t, http.StatusOK, recorder.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("version regression maps to conflict", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		userID := uuid.Must(uuid.NewV7())
		salt := bytes.Repeat([]byte{0x07}, 32)
		useCase.On("UpsertPRFParams", mock.Anything, mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrConflict, "prf params version regression"))

		recorder := putJSON(t, setupPasskeyRouter(useCase), gin.H{
			"user_id":       userID.String(),
			"salt":          base64.StdEncoding.EncodeToString(salt),
			"credential_id": base64.RawURLEncoding.EncodeToString([]byte("credential-id")),
			"version":       1,
		})

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("missing version rejected", func(t *testing.T) {
		useCase := new(MockPasskeyUseCase)
		recorder := putJSON(t, setupPasskeyRouter(useCase), gin.H{
			"user_id":       uuid.Must(uuid.NewV7()).String(),
			"salt":          base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x07}, 32)),
			"credential_id": base64.RawURLEncoding.EncodeToString([]byte("credential-id")),
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

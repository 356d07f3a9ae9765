package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/sharpjobs/internal/api/middleware"
	"github.com/kiranshivaraju/sharpjobs/internal/api/response"
	"github.com/kiranshivaraju/sharpjobs/internal/store"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix starts every raw gateway key.
const KeyPrefix = "sj_"

var validate = validator.New()

// KeyAdmin manages gateway keys.
type KeyAdmin interface {
	CreateGatewayKey(ctx context.Context, key *models.GatewayKey) error
	ListGatewayKeys(ctx context.Context) ([]*models.GatewayKey, error)
	RevokeGatewayKey(ctx context.Context, id uuid.UUID) error
}

type createKeyRequest struct {
	Name   string   `json:"name"   validate:"required,max=100"`
	Scopes []string `json:"scopes" validate:"required,min=1,dive,oneof=submit admin"`
}

type createKeyResponse struct {
	*models.GatewayKey
	Key string `json:"key"`
}

// GenerateKey returns a new raw gateway key.
func GenerateKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return KeyPrefix + hex.EncodeToString(b), nil
}

// NewCreateKeyHandler returns POST /api/v1/admin/keys. The raw key appears in
// this response only.
func NewCreateKeyHandler(admin KeyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if err := validate.Struct(req); err != nil {
			details := map[string]string{}
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					details[fe.Field()] = fe.Tag()
				}
			}
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid key request", details)
			return
		}

		rawKey, err := GenerateKey()
		if err != nil {
			writeError(w, r, err)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, r, fmt.Errorf("hash key: %w", err))
			return
		}

		now := time.Now().UTC()
		key := &models.GatewayKey{
			ID:        uuid.New(),
			Name:      req.Name,
			KeyHash:   string(hash),
			KeyPrefix: rawKey[:mw.KeyPrefixLen],
			Scopes:    req.Scopes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := admin.CreateGatewayKey(r.Context(), key); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "DUPLICATE_KEY", "Key already exists", nil)
				return
			}
			writeError(w, r, err)
			return
		}

		response.Created(w, createKeyResponse{GatewayKey: key, Key: rawKey})
	}
}

// NewListKeysHandler returns GET /api/v1/admin/keys.
func NewListKeysHandler(admin KeyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := admin.ListGatewayKeys(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if keys == nil {
			keys = []*models.GatewayKey{}
		}
		response.JSON(w, keys)
	}
}

// NewRevokeKeyHandler returns DELETE /api/v1/admin/keys/{keyID}.
func NewRevokeKeyHandler(admin KeyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "keyID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "keyID must be a UUID", nil)
			return
		}
		if err := admin.RevokeGatewayKey(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		response.NoContent(w)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/babylonlabs-io/custody-engine/internal/auth"
	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/babylonlabs-io/custody-engine/internal/services"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/rs/zerolog/log"
)

const maxRequestBodyBytes = 1 << 16

// CustodyService is the part of services.Service the API exposes.
type CustodyService interface {
	Ping(ctx context.Context) *types.Error

	InitConfig(ctx context.Context, cfg config.CustodyConfig) (*model.GlobalConfigDocument, *types.Error)
	GlobalConfig(ctx context.Context) (*model.GlobalConfigDocument, *types.Error)

	InitUser(ctx context.Context, owner string) (*model.UserLedgerDocument, *types.Error)
	GetUserLedger(ctx context.Context, owner string) (*model.UserLedgerDocument, *types.Error)
	CloseUser(ctx context.Context, owner string) *types.Error

	Stake(ctx context.Context, owner, assetID string) (*model.CustodyRecordDocument, *types.Error)
	Unstake(ctx context.Context, caller, assetID string) (*services.UnstakeResult, *types.Error)

	ListCustodyRecords(ctx context.Context, owner string) ([]*model.CustodyRecordDocument, *types.Error)
	Eligibility(ctx context.Context, assetID string) (*services.Eligibility, *types.Error)
}

var _ CustodyService = (*services.Service)(nil)

type Handler struct {
	service CustodyService
}

func New(service CustodyService) *Handler {
	return &Handler{service: service}
}

type Result struct {
	Data   any `json:"data"`
	Status int `json:"-"`
}

type ErrorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func NewResult[T any](data T) *Result {
	return &Result{Data: data, Status: http.StatusOK}
}

type HandlerFunc func(r *http.Request) (*Result, *types.Error)

// Wrap turns a HandlerFunc into an http.HandlerFunc that writes either the
// result or the error as JSON.
func Wrap(handler HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := handler(r)
		if err != nil {
			WriteErrorResponse(w, r, err)
			return
		}
		if result == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, r, result.Status, result)
	}
}

func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err *types.Error) {
	logger := log.Ctx(r.Context())
	if err.StatusCode >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("errorCode", string(err.ErrorCode)).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("errorCode", string(err.ErrorCode)).Msg("request rejected")
	}

	message := err.Error()
	if err.ErrorCode == types.InternalServiceError {
		// internal details stay in the logs
		message = "internal service error"
	}

	writeJSON(w, r, err.StatusCode, ErrorResponse{
		ErrorCode: string(err.ErrorCode),
		Message:   message,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}

func decodeBody[T any](r *http.Request) (*T, *types.Error) {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	var body T
	if err := decoder.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.ValidationError, "request body is required")
		}
		return nil, types.NewError(
			http.StatusBadRequest, types.ValidationError, fmt.Errorf("invalid request body: %w", err),
		)
	}
	return &body, nil
}

// callerOwner resolves the owner a mutating request acts for. The owner named
// in the path or body is only accepted when it is the authenticated caller;
// an empty name means the caller.
func callerOwner(r *http.Request, named string) (string, *types.Error) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return "", types.NewError(http.StatusUnauthorized, types.Unauthorized, auth.ErrMissingCredentials)
	}
	if named != "" && named != caller {
		return "", types.NewDomainError(types.ErrNotOwner, "caller %s cannot act for %s", caller, named)
	}
	return caller, nil
}

package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yigit/facultycredits/internal/app/models/dto"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
)

type statusCode struct {
	status int
	code   dto.ErrorCode
}

var kindStatus = map[error]statusCode{
	apperrors.ErrValidationFailed: {http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	apperrors.ErrResourceNotFound: {http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	apperrors.ErrPermissionDenied: {http.StatusForbidden, dto.ErrorCodeForbidden},
	apperrors.ErrInvalidState:     {http.StatusUnprocessableEntity, dto.ErrorCodeInvalidState},
	apperrors.ErrConflict:         {http.StatusConflict, dto.ErrorCodeConflict},
}

// HandleAPIError maps a service error onto its HTTP status and error envelope
func HandleAPIError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, dto.ErrorCodeInternalServer

	if mapped, ok := kindStatus[apperrors.Kind(err)]; ok {
		status, code = mapped.status, mapped.code
	} else {
		switch {
		case errors.Is(err, apperrors.ErrInvalidFormat):
			status, code = http.StatusBadRequest, dto.ErrorCodeValidationFailed
		case errors.Is(err, apperrors.ErrTokenExpired):
			status, code = http.StatusUnauthorized, dto.ErrorCodeExpiredToken
		case errors.Is(err, apperrors.ErrTokenInvalid):
			status, code = http.StatusUnauthorized, dto.ErrorCodeInvalidToken
		}
	}

	message := "Internal server error"
	if status != http.StatusInternalServerError {
		message = apperrors.Message(err)
	} else {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("requestID", c.GetString(requestIDKey)).
			Msg("Unhandled error")
	}

	c.AbortWithStatusJSON(status, dto.APIResponse{
		Error:     dto.NewErrorDetail(code, message),
		Timestamp: time.Now(),
	})
}

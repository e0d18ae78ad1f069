package appErrors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"circle_backend/internal/appErrors"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ClonesMatchPrototype(t *testing.T) {
	withDetails := appErrors.ErrPayloadTooLarge.WithDetails(map[string]int64{"size": 100})
	assert.ErrorIs(t, withDetails, appErrors.ErrPayloadTooLarge)

	withCause := appErrors.ErrInvalidCredential.WithError(errors.New("signature invalid"))
	assert.ErrorIs(t, withCause, appErrors.ErrInvalidCredential)

	// клон не мутирует предопределенное значение
	assert.Nil(t, appErrors.ErrPayloadTooLarge.Details)
	assert.Nil(t, appErrors.ErrInvalidCredential.Err)
}

func TestAppError_UnwrapChain(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := appErrors.ExternalServiceError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFrom(t *testing.T) {
	// уже AppError - проходит как есть
	assert.Equal(t, appErrors.ErrRoomNotFound, appErrors.From(appErrors.ErrRoomNotFound))

	// обернутый AppError достается из цепочки
	wrapped := fmt.Errorf("handling request: %w", appErrors.ErrAccessDenied)
	assert.Equal(t, appErrors.CodeAccessDenied, appErrors.From(wrapped).Code)

	// истекший дедлайн - таймаут, а не internal error
	timeout := appErrors.From(context.DeadlineExceeded)
	assert.Equal(t, appErrors.CodeTimeout, timeout.Code)
	assert.Equal(t, http.StatusGatewayTimeout, timeout.HTTPCode)

	// неизвестная ошибка - internal
	internal := appErrors.From(errors.New("boom"))
	assert.Equal(t, appErrors.CodeInternalError, internal.Code)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPCode)
}

package rest

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"yqhp/matrix-engine/pkg/types"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code types.ErrorCode
		want int
	}{
		{types.ErrCodeShape, fiber.StatusBadRequest},
		{types.ErrCodeRaggedMatrix, fiber.StatusBadRequest},
		{types.ErrCodeDimensionMismatch, fiber.StatusBadRequest},
		{types.ErrCodeLengthMismatch, fiber.StatusBadRequest},
		{types.ErrCodeInvalidBody, fiber.StatusBadRequest},
		{types.ErrCodeDispatch, fiber.StatusBadGateway},
		{types.ErrCodeTransport, fiber.StatusBadGateway},
		{types.ErrCodeRemoteStatus, fiber.StatusBadGateway},
		{types.ErrCodeDecode, fiber.StatusBadGateway},
		{types.ErrCodeIndex, fiber.StatusInternalServerError},
		{"", fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.code), string(tt.code))
	}
}

func TestPresentError(t *testing.T) {
	status, body := presentError(fiber.ErrNotFound)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "error_404", body.Code)

	status, body = presentError(&types.AssemblyError{Units: 1, Failed: 1, First: &types.IndexError{Reason: "missing outcome"}})
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, string(types.ErrCodeDispatch), body.Code)
	assert.Contains(t, body.Error, "missing outcome")

	status, body = presentError(errors.New("secret detail"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotContains(t, body.Error, "secret")
}

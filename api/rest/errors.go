package rest

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"yqhp/matrix-engine/pkg/types"
)

// StatusFor maps an error code to the HTTP status it is presented with.
func StatusFor(code types.ErrorCode) int {
	switch code {
	case types.ErrCodeShape, types.ErrCodeDimensionMismatch, types.ErrCodeRaggedMatrix,
		types.ErrCodeLengthMismatch, types.ErrCodeInvalidBody:
		return fiber.StatusBadRequest
	case types.ErrCodeDispatch, types.ErrCodeTransport, types.ErrCodeRemoteStatus, types.ErrCodeDecode:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// presentError converts err into a status and response body.
func presentError(err error) (int, types.ErrorResponse) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, types.ErrorResponse{
			Error: fe.Message,
			Code:  fmt.Sprintf("error_%d", fe.Code),
		}
	}

	code := types.CodeOf(err)
	if code == "" {
		return fiber.StatusInternalServerError, types.ErrorResponse{
			Error: "internal server error",
		}
	}
	return StatusFor(code), types.ErrorResponse{
		Error: err.Error(),
		Code:  string(code),
	}
}

// errorHandler handles errors returned by handlers.
func errorHandler(c *fiber.Ctx, err error) error {
	status, body := presentError(err)
	return c.Status(status).JSON(body)
}

// invalidBody is returned when a request body cannot be decoded.
func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
		Error: fmt.Sprintf("invalid request body: %v", err),
		Code:  string(types.ErrCodeInvalidBody),
	})
}

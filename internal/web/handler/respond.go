package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vendahub/vendahub/internal/rbac"
)

// statusByCode maps service error codes to HTTP statuses.
var statusByCode = map[rbac.Code]int{
	rbac.CodePermissionDenied: fiber.StatusForbidden,
	rbac.CodeInvalidArgument:  fiber.StatusBadRequest,
	rbac.CodeNotFound:         fiber.StatusNotFound,
	rbac.CodeInternal:         fiber.StatusInternalServerError,
}

// StatusOf returns the HTTP status for a service error. Unclassified errors
// are internal.
func StatusOf(err error) int {
	if status, ok := statusByCode[rbac.CodeOf(err)]; ok {
		return status
	}

	return fiber.StatusInternalServerError
}

// JSONError writes the error as a JSON body with its mapped status. The
// code and message are stable for API consumers; causes stay in the logs.
func JSONError(c *fiber.Ctx, err error) error {
	var rbacErr *rbac.Error

	code := rbac.CodeInternal
	message := "internal error"

	if errors.As(err, &rbacErr) {
		code = rbacErr.Code
		message = rbacErr.Message
	}

	return c.Status(StatusOf(err)).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    string(code),
			"message": message,
		},
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every response uses the same envelope:
// {success, message, data?, error?}

func RespondOK(ctx *gin.Context, message string, data interface{}) {
	body := gin.H{
		"success": true,
		"message": message,
	}

	if data != nil {
		body["data"] = data
	}

	ctx.JSON(http.StatusOK, body)
}

func RespondCreated(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"success": false,
		"message": message,
		"error":   code,
	}

	if details != nil {
		body["details"] = details
	}

	ctx.JSON(status, body)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondInternal never leaks the underlying fault; detail goes to the log.
func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

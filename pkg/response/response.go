package response

import (
	"net/http"

	"fundsledger/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeTooLarge     = 413
	CodeTooMany      = 429
	CodeServerError  = 500
)

const (
	CodeBalanceNotEnough = 1003
	CodeConflict         = 1004
	CodeAccountNotFound  = 1005
	CodeUpstreamError    = 1006
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Created answers 201 with a caller-facing message.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, message)
}

// Fail writes err using the status and business code of its apperror kind.
func Fail(c *gin.Context, err error) {
	status, code := StatusOf(apperror.KindOf(err))
	Error(c, status, code, apperror.Message(err))
}

func StatusOf(kind apperror.Kind) (status, code int) {
	switch kind {
	case apperror.InvalidArgument:
		return http.StatusBadRequest, CodeParamError
	case apperror.Unauthenticated:
		return http.StatusUnauthorized, CodeUnauthorized
	case apperror.Forbidden:
		return http.StatusForbidden, CodeForbidden
	case apperror.NotFound:
		return http.StatusNotFound, CodeAccountNotFound
	case apperror.InsufficientFunds:
		return http.StatusBadRequest, CodeBalanceNotEnough
	case apperror.Conflict:
		return http.StatusConflict, CodeConflict
	case apperror.UpstreamUnavailable:
		return http.StatusBadGateway, CodeUpstreamError
	default:
		return http.StatusInternalServerError, CodeServerError
	}
}

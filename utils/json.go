package utils

import (
	"net/http"

	"ColdVault/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Success writes a success JSON response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, gin.H{
		"code": 0,
		"msg":  "ok",
		"data": data,
	})
}

// Fail writes an error JSON response, mapping the error kind to an HTTP
// status. Callers get the kind tag plus the human-readable message; no
// Go error type name leaks into the contract.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.JSON(statusOf(kind), gin.H{
		"code": -1,
		"kind": kind.String(),
		"msg":  err.Error(),
	})
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidArgument, apperr.InvalidTransition, apperr.IncompleteChunks:
		return http.StatusBadRequest
	case apperr.Expired, apperr.AlreadyCompleted:
		return http.StatusConflict
	case apperr.BackendFailure, apperr.PersistenceFailure, apperr.NoProvidersAvailable:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

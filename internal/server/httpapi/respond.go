package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uchan-net/uchan/internal/common"
)

// Every response carries the envelope {code, data} on success and
// {code, error, details} on failure; the code mirrors the HTTP status.

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"code": status, "data": data})
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func respondError(c *gin.Context, status int, details string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"error":   http.StatusText(status),
		"details": details,
	})
}

// respondErr maps domain sentinels onto the error taxonomy. Unrecognized
// errors are internal failures and are never silently downgraded.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorInvalidLogin),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorSessionExpired):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrorConflict),
		errors.Is(err, common.ErrorAlreadyActivated),
		errors.Is(err, common.ErrorAlreadyAccepted):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

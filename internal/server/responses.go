package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elarabyomar/PFA-sub000/internal/backend"
	"github.com/elarabyomar/PFA-sub000/internal/store"
)

// Fail aborts with the API error body.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, backend.ErrorResponse{Error: message})
}

// FailErr maps store errors to statuses. Errors on writes that are not
// recognised are reported as 422 with the database's message, since they
// are almost always constraint violations.
func FailErr(c *gin.Context, err error, write bool) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, store.ErrTableNotFound), errors.Is(err, store.ErrRowNotFound):
		Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrUnknownColumn), errors.Is(err, store.ErrNoSingleKey):
		Fail(c, http.StatusBadRequest, err.Error())
	case write:
		Fail(c, http.StatusUnprocessableEntity, err.Error())
	default:
		Fail(c, http.StatusInternalServerError, err.Error())
	}
}

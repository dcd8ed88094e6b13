package webserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencivic/agora/src/agora/types"
)

// fail maps data-layer errors onto the wire contract. Ownership and role
// failures surface as 401, duplicates and bad input as 400, and anything
// unexpected as a generic 500 without internal detail.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "resource not found"})
	case errors.Is(err, types.ErrForbidden):
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "not authorized"})
	case errors.Is(err, types.ErrSelfSign):
		c.JSON(http.StatusBadRequest, gin.H{"msg": types.ErrSelfSign.Error()})
	case errors.Is(err, types.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "already recorded"})
	case errors.Is(err, types.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"msg": types.ErrInvalidTransition.Error()})
	case errors.Is(err, types.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid input"})
	default:
		log.Printf("webserver: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
	}
}

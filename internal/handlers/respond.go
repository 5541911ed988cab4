package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matsalen/desafio-procion/internal/apperr"
)

// respondError maps a service error onto the HTTP taxonomy. notFoundStatus
// lets order creation report unknown references as a client error.
func respondError(c *gin.Context, err error, notFoundStatus int) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Persistence("request", err)
	}

	switch e.Kind {
	case apperr.KindValidation:
		body := gin.H{"error": e.Code, "msg": e.Msg}
		if e.Field != "" {
			body["field"] = e.Field
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case apperr.KindConflict:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": e.Code, "msg": e.Msg})
	case apperr.KindNotFound:
		c.AbortWithStatusJSON(notFoundStatus, gin.H{"error": e.Code, "msg": e.Msg})
	default:
		zap.L().Error("persistence fault",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "persistence_fault", "msg": "internal error"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "msg": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

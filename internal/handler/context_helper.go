package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/middleware"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/response"
)

// requireAccount writes 401 and returns false when no account is on the context.
func requireAccount(c *gin.Context) (string, bool) {
	accountID := middleware.AccountID(c)
	if accountID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return accountID, true
}

func bindJSON(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.ErrValidation.With(err, msg))
		return false
	}
	return true
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

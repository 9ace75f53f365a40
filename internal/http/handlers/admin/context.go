package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/handlers/shared"
	"github.com/poshpearl/poshpearl/internal/http/response"
)

func getStaffID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, "user_id")
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid id", err)
		return 0, false
	}
	return uint(id), true
}

func normalizePagination(page, pageSize int) (int, int) {
	return shared.NormalizePagination(page, pageSize)
}

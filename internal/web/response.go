package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func respondErrorDetail(c *gin.Context, status int, msg, detail string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Detail: detail})
}

func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	respondErrorDetail(c, http.StatusInternalServerError, "Server error", err.Error())
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK trả DTO trực tiếp, không bọc envelope
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created set Location header và trả DTO vừa tạo
func Created(c *gin.Context, location string, data interface{}) {
	if location != "" {
		c.Header("Location", location)
	}
	c.JSON(http.StatusCreated, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

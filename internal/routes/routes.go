package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tablescope/internal/handlers"
)

func RegisterRoutes(router *gin.Engine, tableHandler *handlers.TableHandler, schemaHandler *handlers.SchemaHandler) {
	api := router.Group("/api/v1")

	tableRoutes := NewTableRoutes(tableHandler)
	tableRoutes.RegisterRoutes(api)

	schemaRoutes := NewSchemaRoutes(schemaHandler)
	schemaRoutes.RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}

package routes

import (
	"github.com/gin-gonic/gin"

	"tablescope/internal/handlers"
)

type TableRoutes struct {
	tableHandler *handlers.TableHandler
}

func NewTableRoutes(tableHandler *handlers.TableHandler) *TableRoutes {
	return &TableRoutes{
		tableHandler: tableHandler,
	}
}

func (r *TableRoutes) RegisterRoutes(router *gin.RouterGroup) {
	tables := router.Group("/tables")
	{
		tables.GET("", r.tableHandler.ListTables)
		tables.GET("/:table", r.tableHandler.BrowseTable)
	}
	router.POST("/analyze", r.tableHandler.Analyze)
}

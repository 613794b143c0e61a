package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tablescope/internal/responses"
	"tablescope/internal/services"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
}

func NewSchemaHandler(schemaService *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

// Diagram handles GET /api/v1/schema
func (h *SchemaHandler) Diagram(c *gin.Context) {
	diagram, ok := h.schemaService.Diagram(c.Request.Context())

	responses.Success(c, http.StatusOK, gin.H{
		"schema":   h.schemaService.Schema(),
		"nodes":    diagram.Nodes,
		"edges":    diagram.Edges,
		"degraded": !ok,
	}, "Schema diagram generated successfully")
}

// Mermaid handles GET /api/v1/schema/mermaid
func (h *SchemaHandler) Mermaid(c *gin.Context) {
	mermaid, ok := h.schemaService.Mermaid(c.Request.Context())

	responses.Success(c, http.StatusOK, gin.H{
		"schema":   h.schemaService.Schema(),
		"mermaid":  mermaid,
		"degraded": !ok,
	}, "Schema visualization generated successfully")
}

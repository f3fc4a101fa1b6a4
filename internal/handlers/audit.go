package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/dto"
	"github.com/yukikurage/task-tracker/internal/middleware"
	"github.com/yukikurage/task-tracker/internal/services"
	"github.com/yukikurage/task-tracker/internal/utils"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListLogs returns audit entries newest first. tableName filters by a
// case-insensitive substring; page and limit are optional.
func (h *AuditHandler) ListLogs(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	query := services.AuditQuery{TableName: c.Query("tableName")}
	params, paginated := utils.GetPaginationParams(c)
	if paginated {
		query.Offset = params.Offset
		query.Limit = params.Limit
	}

	entries, total, err := h.auditService.Query(c.Request.Context(), actor, query)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"data": dto.ToAuditLogDTOs(entries)}
	if paginated {
		resp["pagination"] = utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		}
	}

	c.JSON(http.StatusOK, resp)
}

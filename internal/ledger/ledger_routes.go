package ledger

import (
	"github.com/janajenn/capstone2-sub006/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	credits := r.Group("/credits")
	credits.Use(middleware.AuthMiddleware())
	{
		credits.GET("/:employeeId", middleware.RBACAuthorize(rbacService, "ledger", "read"), handler.GetBalance)
		credits.GET("/:employeeId/logs", middleware.RBACAuthorize(rbacService, "ledger", "read"), handler.GetLogs)
		credits.POST("/late-deductions", middleware.RBACAuthorize(rbacService, "ledger", "adjust"), handler.LateDeduction)
	}
}

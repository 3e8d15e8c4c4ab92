package delegation

import (
	"github.com/janajenn/capstone2-sub006/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	delegations := r.Group("/delegations")
	delegations.Use(middleware.AuthMiddleware())
	{
		delegations.GET("/current-approver", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.GetCurrentApprover)
		delegations.GET("", middleware.RBACAuthorize(rbacService, "delegation", "manage"), handler.GetAll)
		delegations.POST("", middleware.RBACAuthorize(rbacService, "delegation", "manage"), handler.Delegate)
		delegations.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "delegation", "manage"), handler.Cancel)
	}
}

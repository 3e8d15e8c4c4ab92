package approval

import (
	"github.com/janajenn/capstone2-sub006/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	redisClient *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "create"), middleware.Idempotency(redisClient), handler.Submit)
		leaves.GET("/mine", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetMine)
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.GetAll)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetByID)
		leaves.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave", "approve"), middleware.Idempotency(redisClient), handler.Approve)
		leaves.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave", "approve"), middleware.Idempotency(redisClient), handler.Reject)
	}
}

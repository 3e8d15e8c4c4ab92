package conversion

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
	conversions := r.Group("/conversions")
	conversions.Use(middleware.AuthMiddleware())
	{
		conversions.POST("", middleware.RBACAuthorize(rbacService, "conversion", "create"), middleware.Idempotency(redisClient), handler.Submit)
		conversions.GET("/mine", middleware.RBACAuthorize(rbacService, "conversion", "read"), handler.GetMine)
		conversions.GET("", middleware.RBACAuthorize(rbacService, "conversion", "approve"), handler.GetAll)
		conversions.GET("/:id", middleware.RBACAuthorize(rbacService, "conversion", "read"), handler.GetByID)
		conversions.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "conversion", "approve"), middleware.Idempotency(redisClient), handler.Approve)
		conversions.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "conversion", "approve"), middleware.Idempotency(redisClient), handler.Reject)
	}
}

package recall

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
	recalls := r.Group("/leaves/:id/recall")
	recalls.Use(middleware.AuthMiddleware())
	{
		recalls.GET("/eligibility", middleware.RBACAuthorize(rbacService, "leave", "recall"), handler.GetEligibility)
		recalls.POST("", middleware.RBACAuthorize(rbacService, "leave", "recall"), middleware.Idempotency(redisClient), handler.Recall)
	}

	list := r.Group("/recalls")
	list.Use(middleware.AuthMiddleware())
	{
		list.GET("", middleware.RBACAuthorize(rbacService, "leave", "recall"), handler.GetAll)
	}
}

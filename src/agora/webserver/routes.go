package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/config"
	"github.com/opencivic/agora/src/agora/data"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "x-auth-token"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: true,
	}))

	emitter := data.NewEmitter(db, rdb)

	authH := NewAuth(db, cfg.JWTSecret)
	petitionH := NewPetitions(db, emitter)
	pollH := NewPolls(db)
	notifH := NewNotifications(db)
	userH := NewUsers(db)
	analyticsH := NewAnalytics(db)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authH.Register)
		v1.POST("/auth/login", authH.Login)

		v1.GET("/petitions", petitionH.List)
		v1.GET("/polls", pollH.List)

		secured := v1.Group("")
		secured.Use(AuthRequired(db, cfg.JWTSecret))
		{
			secured.GET("/me", userH.Me)
			secured.DELETE("/me", userH.DeleteMe)

			secured.POST("/petitions", petitionH.Create)
			secured.GET("/petitions/:id", petitionH.Get)
			secured.PUT("/petitions/:id", petitionH.Update)
			secured.DELETE("/petitions/:id", petitionH.Delete)
			secured.POST("/petitions/:id/sign", petitionH.Sign)
			secured.POST("/petitions/:id/comment", petitionH.AddComment)
			secured.POST("/petitions/:id/comment/reply", petitionH.AddReply)
			secured.POST("/petitions/:id/comment/vote", petitionH.VoteComment)
			secured.PUT("/petitions/:id/status", petitionH.ChangeStatus)

			secured.POST("/polls", pollH.Create)
			secured.GET("/polls/:id", pollH.Get)
			secured.PUT("/polls/:id", pollH.Update)
			secured.DELETE("/polls/:id", pollH.Delete)
			secured.POST("/polls/:id/vote", pollH.Vote)

			secured.GET("/notifications", notifH.List)
			secured.PUT("/notifications/:id/read", notifH.MarkRead)

			secured.GET("/analytics", analyticsH.Summary)
		}
	}
}

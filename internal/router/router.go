package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/handler"
	"github.com/habitloop/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("habitloop_session", store))
	r.Use(middleware.Monitor())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 信息流对匿名用户开放，登录用户附带参与注解
	r.GET("/feed", api.GetFeed)

	// 登录/注册入口限流
	limited := r.Group("")
	limited.Use(middleware.RateLimit())
	{
		limited.POST("/signup", api.Signup)
		limited.POST("/login", api.Login)
	}

	// 需要认证的路由
	auth := r.Group("")
	auth.Use(handler.AuthRequired())
	{
		auth.POST("/logout", api.Logout)
		auth.GET("/me", api.Me)

		auth.GET("/users", api.ListUsers)
		auth.GET("/users/:id", api.GetUser)
		auth.DELETE("/users/:id", api.DeleteUser)
		auth.POST("/users/avatar", api.UploadAvatar)

		auth.GET("/habits", api.ListHabits)
		auth.POST("/habits", api.CreateHabit)
		auth.GET("/habits/:id", api.GetHabit)
		auth.PUT("/habits/:id", api.UpdateHabit)
		auth.DELETE("/habits/:id", api.DeleteHabit)

		auth.GET("/user-habits", api.ListMyHabits)
		auth.POST("/user-habits/assign", api.AssignHabit)
		auth.POST("/user-habits/remove", api.RemoveHabit)

		auth.GET("/habit-entries", api.ListMyHabitEntries)
		auth.POST("/habit-entries", api.SubmitHabitEntry)

		auth.GET("/challenges", api.ListChallenges)
		auth.POST("/challenges", api.CreateChallenge)
		auth.GET("/challenges/:id", api.GetChallenge)
		auth.PUT("/challenges/:id", api.UpdateChallenge)
		auth.DELETE("/challenges/:id", api.DeleteChallenge)
		auth.GET("/challenges/:id/participation-status", api.ParticipationStatus)
		auth.GET("/challenges/:id/entries", api.ListChallengeEntries)

		auth.GET("/challenge-participants", api.ListMyParticipations)
		auth.POST("/challenge-participants", api.JoinChallenge)
		auth.DELETE("/challenge-participants", api.LeaveChallenge)

		auth.GET("/challenge-entries", api.ListMyEntries)
		auth.POST("/challenge-entries", api.SubmitEntry)

		auth.GET("/messages", api.ListMessages)
		auth.POST("/messages", api.SendMessage)

		auth.GET("/comments", api.ListComments)
		auth.POST("/comments", api.CreateComment)
	}

	return r
}

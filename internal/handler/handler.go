package handler

import (
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

const DEFAULT_CLIENT_ORIGIN = "http://localhost:3000"

type Handler struct {
	services *service.Service
}

func New(services *service.Service) *Handler {
	return &Handler{
		services: services,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origin := viper.GetString("client.origin")
	if origin == "" {
		origin = DEFAULT_CLIENT_ORIGIN
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{"POST", "GET", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	if viper.GetString("storage.driver") == "local" {
		r.Static("/media", viper.GetString("storage.local.path"))
	}

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signIn", h.authSignIn)
			auth.POST("/signUp", h.authSignUp)
			auth.POST("/federated", h.authFederated)
			auth.POST("/signOut", h.authSignOut)
			auth.GET("/session", h.authMiddleware, h.authSession)
			auth.POST("/session/refresh", h.authMiddleware, h.authRefreshProfile)
		}

		feed := v1.Group("/feed")
		{
			feed.GET("", h.feedLoad)
			feed.GET("/snapshot", h.feedSnapshot)
			feed.GET("/live", h.feedLive)
		}

		uploads := v1.Group("/uploads", h.authMiddleware)
		{
			uploads.POST("", h.uploadsSelect)

			upload := uploads.Group("/:jobID")
			{
				upload.PUT("", h.uploadsEdit)
				upload.POST("/commit", h.uploadsCommit)
				upload.DELETE("", h.uploadsCancel)
			}
		}

		posts := v1.Group("/posts")
		{
			posts.POST("", h.authMiddleware, h.postsCreate)

			post := posts.Group("/:postID")
			{
				post.DELETE("", h.authMiddleware, h.postsDelete)
				post.GET("/state", h.postsState)
				post.POST("/hover", h.postsHover)
				post.POST("/leave", h.postsLeave)
				post.DELETE("/state", h.postsRelease)
				post.POST("/delete/request", h.authMiddleware, h.postsRequestDelete)
				post.POST("/delete/cancel", h.postsCancelDelete)
				post.POST("/delete/confirm", h.authMiddleware, h.postsConfirmDelete)
				post.POST("/like", h.authMiddleware, h.postsLike)
				post.DELETE("/unlike", h.authMiddleware, h.postsUnlike)
				post.POST("/comments", h.authMiddleware, h.commentsCreate)
			}
		}

		users := v1.Group("/users")
		{
			users.PATCH("/me", h.authMiddleware, h.usersUpdateMe)

			user := users.Group("/:userID")
			{
				user.GET("", h.usersGet)
				user.GET("/posts", h.usersPosts)
				user.POST("/follow", h.authMiddleware, h.usersFollow)
				user.DELETE("/unfollow", h.authMiddleware, h.usersUnfollow)
				user.GET("/isFollowing", h.authMiddleware, h.usersIsFollowing)
			}
		}
	}

	return r
}

func (h *Handler) getSessionFromRequest(c *gin.Context) *model.Session {
	sessionReq, _ := c.Get("session")

	session, ok := sessionReq.(model.Session)
	if !ok {
		return nil
	}

	return &session
}

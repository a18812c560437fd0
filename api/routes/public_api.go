package routes

import (
	"pixelgram/api/handlers"
	"pixelgram/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PublicApi(router *gin.Engine) *gin.RouterGroup {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1/")

	// Без аутентификации
	api.POST("auth/register", handlers.Register)
	api.POST("auth/login", handlers.Login)
	api.POST("auth/logout", handlers.Logout)

	// Доступно анониму: если кука есть - контент персонализируется
	public := api.Group("")
	public.Use(middleware.OptionalAuth())
	{
		public.GET("auth/me", handlers.Me)
		public.GET("feed", handlers.GetHomeFeed)
		public.GET("explore", handlers.GetExploreFeed)
		public.GET("explore/tags/:tag", handlers.GetTagFeed)
		public.GET("search", handlers.Search)
		public.GET("users/:username", handlers.GetProfile)
		public.GET("users/:username/posts", handlers.GetUserPosts)
		public.GET("users/:username/tagged", handlers.GetUserTaggedPosts)
		public.GET("posts/:post_id", handlers.GetPost)
		public.GET("posts/:post_id/comments", handlers.ListComments)
	}

	// Только для залогиненных
	private := api.Group("")
	private.Use(middleware.RequireAuth())
	{
		private.POST("posts", handlers.CreatePost)
		private.PATCH("posts/:post_id", handlers.UpdateCaption)
		private.DELETE("posts/:post_id", handlers.DeletePost)
		private.POST("posts/:post_id/comments", handlers.CreateComment)

		private.POST("posts/:post_id/like", handlers.ToggleLike)
		private.POST("posts/:post_id/save", handlers.ToggleSave)
		private.POST("comments/:comment_id/like", handlers.ToggleCommentLike)
		private.POST("users/:username/follow", handlers.ToggleFollow)

		private.GET("saved", handlers.GetSavedPosts)
		private.PATCH("profile", handlers.UpdateProfile)

		private.GET("notifications", handlers.ListNotifications)
		private.GET("notifications/unread", handlers.GetUnreadCount)

		private.GET("home/stories", handlers.GetStoryUsers)
		private.GET("home/suggested", handlers.GetSuggestedUsers)

		private.GET("ws/notifications", handlers.WSNotificationsHandler)
	}

	return api
}

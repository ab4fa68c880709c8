package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studentmart/backend/internal/handlers"
	"github.com/studentmart/backend/internal/service/token"
)

type Deps struct {
	AuthHandler         *handlers.AuthHandler
	ProjectHandler      *handlers.ProjectHandler
	OrderHandler        *handlers.OrderHandler
	RequestHandler      *handlers.RequestHandler
	NotificationHandler *handlers.NotificationHandler
	PaymentHandler      *handlers.PaymentHandler
	UploadHandler       *handlers.UploadHandler
	UserHandler         *handlers.UserHandler
	AdminHandler        *handlers.AdminHandler
	SearchHandler       *handlers.SearchHandler
	Tokens              *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")
	api.GET("", func(c echo.Context) error { return c.JSON(http.StatusOK, echo.Map{"ok": true}) })

	auth := api.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/refresh", d.AuthHandler.Refresh)

	projects := api.Group("/projects")
	projects.GET("", d.ProjectHandler.GetProjects)
	projects.GET("/featured", d.ProjectHandler.GetFeatured)
	projects.GET("/:id", d.ProjectHandler.GetProject)

	if d.SearchHandler != nil {
		api.GET("/search", d.SearchHandler.Search)
	}

	orders := api.Group("/orders", d.Tokens.RequireUser)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus)
	orders.PATCH("/:id/cancel", d.OrderHandler.CancelOrder)

	requests := api.Group("/project-requests", d.Tokens.RequireUser)
	requests.POST("", d.RequestHandler.Submit)
	requests.GET("", d.RequestHandler.ListRequests)
	requests.GET("/:id", d.RequestHandler.GetRequest)
	requests.POST("/:id/respond", d.RequestHandler.Respond, d.Tokens.RequireAdmin)
	requests.PATCH("/:id/status", d.RequestHandler.UpdateStatus, d.Tokens.RequireAdmin)

	notifications := api.Group("/notifications", d.Tokens.RequireUser)
	notifications.GET("", d.NotificationHandler.ListNotifications)
	notifications.GET("/unread-count", d.NotificationHandler.UnreadCount)
	notifications.PATCH("/:id/read", d.NotificationHandler.MarkRead)

	uploads := api.Group("/uploads", d.Tokens.RequireUser)
	uploads.POST("/signed-url", d.UploadHandler.SignedURL)

	payments := api.Group("/payments", d.Tokens.RequireUser)
	payments.POST("/razorpay/create-order", d.PaymentHandler.CreateRazorpayOrder)
	payments.POST("/razorpay/verify", d.PaymentHandler.VerifyRazorpay)
	payments.POST("/stripe/create-session", d.PaymentHandler.CreateStripeSession)
	payments.GET("/history", d.PaymentHandler.History)

	users := api.Group("/users", d.Tokens.RequireUser)
	users.GET("/profile", d.UserHandler.GetProfile)
	users.PUT("/profile", d.UserHandler.UpdateProfile)
	users.POST("/avatar", d.UserHandler.UploadAvatar)

	admin := api.Group("/admin", d.Tokens.RequireAdmin)
	admin.GET("/stats", d.AdminHandler.Stats)
	admin.GET("/users", d.AdminHandler.ListUsers)
	admin.GET("/users/:id", d.AdminHandler.GetUser)
	admin.PUT("/users/:id", d.AdminHandler.UpdateUser)
	admin.DELETE("/users/:id", d.AdminHandler.DeleteUser)
	admin.GET("/projects", d.AdminHandler.ListProjects)
	admin.POST("/projects", d.ProjectHandler.CreateProject)
	admin.PATCH("/projects/:id", d.ProjectHandler.PatchProject)
	admin.DELETE("/projects/:id", d.ProjectHandler.DeleteProject)
	admin.PATCH("/projects/:id/approve", d.ProjectHandler.Approve)
	admin.PATCH("/projects/:id/reject", d.ProjectHandler.Reject)
}

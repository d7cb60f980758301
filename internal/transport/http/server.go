package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "gopher-accounts/internal/app"
	"gopher-accounts/internal/bootstrap"
	"gopher-accounts/internal/cache"
	"gopher-accounts/internal/pkg/hasher"
	"gopher-accounts/internal/pkg/jwtutil"
	"gopher-accounts/internal/transport/http/handler"
	"gopher-accounts/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Logger), gin.Recovery())
	if c, ok := corsConfig(app.Config.App.CORSOrigins); ok {
		router.Use(cors.New(c))
	}

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	// interfaces stay nil when the backend is off, never a typed nil
	var (
		userCache appsvc.UserCache
		events    appsvc.EventPublisher
	)
	if app.Redis != nil {
		userCache = cache.NewUserCache(app.Redis, time.Duration(app.Config.Redis.UserTTLSeconds)*time.Second)
	}
	if app.Events != nil {
		events = app.Events
	}

	passwordHasher := hasher.NewBcrypt(app.Config.Auth.BcryptCost)
	issuer := jwtutil.NewIssuer(
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	authService := appsvc.NewAuthService(app.DB, passwordHasher, issuer, events, app.Logger)
	userService := appsvc.NewUserService(app.DB, passwordHasher, userCache, events, app.Logger)
	authHandler := handler.NewAuthHandler(authService, app.Logger)
	userHandler := handler.NewUserHandler(userService, app.Logger)

	authGroup := router.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/signin", authHandler.Signin)

	requireToken := middleware.AuthJWT(issuer)
	userGroup := router.Group("/users")
	userGroup.GET("/", userHandler.List)
	userGroup.GET("/:id", userHandler.Get)
	userGroup.PATCH("/:id", requireToken, userHandler.Update)
	userGroup.DELETE("/:id", requireToken, userHandler.Delete)

	return router
}

func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c, true
		}
	}
	c.AllowOrigins = origins
	return c, true
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/api/handler"
	"github.com/qs3c/spanel_go_server/internal/api/middleware"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
)

type Router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	billingHandler   *handler.BillingHandler
	subscribeHandler *handler.SubscribeHandler
	nodeHandler      *handler.NodeHandler
	adminHandler     *handler.AdminHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
	logger           logging.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	billingHandler *handler.BillingHandler,
	subscribeHandler *handler.SubscribeHandler,
	nodeHandler *handler.NodeHandler,
	adminHandler *handler.AdminHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
	logger logging.Logger,
) *Router {
	return &Router{
		authHandler:      authHandler,
		userHandler:      userHandler,
		billingHandler:   billingHandler,
		subscribeHandler: subscribeHandler,
		nodeHandler:      nodeHandler,
		adminHandler:     adminHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
		logger:           logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.logger))
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 订阅拉取，token 即凭据
		api.GET("/subscribe/:token", r.subscribeHandler.Fetch)

		// 节点上报，走节点密钥
		api.POST("/node/heartbeat", r.nodeHandler.Heartbeat)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/github", r.authHandler.GithubAuth)
			auth.GET("/github/callback", r.authHandler.GithubCallback)
		}

		// 公开接口 - 商店
		api.GET("/shop", r.billingHandler.ListProducts)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.POST("/shop/:id/buy", r.billingHandler.Buy)

			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/info", r.userHandler.GetInfo)
				user.PUT("/profile", r.userHandler.UpdateProfile)
				user.POST("/avatar", r.userHandler.UploadAvatar)
				user.GET("/traffic", r.userHandler.GetTraffic)
				user.GET("/nodes", r.userHandler.GetNodes)
				user.GET("/purchases", r.billingHandler.ListPurchases)
				user.GET("/redeem", r.billingHandler.RedeemQuota)
				user.POST("/redeem", r.billingHandler.Redeem)
				user.GET("/subscription", r.subscribeHandler.GetLink)
				user.POST("/subscription/reset", r.subscribeHandler.ResetLink)
			}

			// 管理，handler 内校验管理员
			admin := authenticated.Group("/admin")
			{
				admin.POST("/codes", r.adminHandler.GenerateCodes)
				admin.GET("/codes", r.adminHandler.ListCodes)
				admin.POST("/users/:id/credit", r.adminHandler.Credit)
				admin.POST("/nodes", r.adminHandler.CreateNode)
				admin.PUT("/nodes/:id", r.adminHandler.UpdateNode)
				admin.POST("/products", r.adminHandler.CreateProduct)
			}
		}
	}

	return engine
}

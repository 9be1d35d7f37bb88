package router

import (
	"net/http"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/config"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/handler"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/middleware"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services 路由依赖的全部 service，由 main 组装
type Services struct {
	Auth        *service.AuthService
	User        *service.UserService
	School      *service.SchoolService
	Board       *service.BoardService
	Article     *service.ArticleService
	Comment     *service.CommentService
	Asked       *service.AskedService
	Connection  *service.ConnectionService
	Fight       *service.FightService
	Report      *service.ReportService
	Moderation  *service.ModerationService
	Ad          *service.AdService
	Image       *service.ImageService
	Bus         *service.BusService
	Cache       *service.CacheService
	Tokens      *pkg.TokenIssuer
	Limiter     middleware.Limiter
	Registry    *prometheus.Registry
	HTTP        config.HTTPConfig
	RateLimit   config.RateLimitConfig
	Log         *zap.Logger
	DisableCORS bool
}

func InitRouter(s *Services) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(s.Log),
		middleware.RequestID(),
		middleware.Logger(s.Log),
		middleware.ErrorHandler(s.Log),
	)
	if s.Registry != nil {
		r.Use(middleware.NewMetrics(s.Registry).Handler())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	}
	if !s.DisableCORS {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.HTTP.CorsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: true,
		}))
	}

	rl := s.RateLimit
	if rl.Enabled && s.Limiter != nil {
		r.Use(middleware.RateLimit(s.Limiter, middleware.RateRule{Name: "global", Limit: rl.Limit, Window: rl.Window},
			s.HTTP.ProxyHeader, rl.Message, s.Log))
	}

	r.GET("/healthz", func(c *gin.Context) { pkg.OK(c, gin.H{"ok": true}) })
	r.NoRoute(func(c *gin.Context) {
		pkg.Respond(c, http.StatusNotFound, "요청한 경로를 찾을 수 없습니다.", nil)
	})

	auth := handler.NewAuthHandler(s.Auth)
	user := handler.NewUserHandler(s.User, s.Image, s.Tokens)
	school := handler.NewSchoolHandler(s.School)
	board := handler.NewBoardHandler(s.Board, s.Article)
	article := handler.NewArticleHandler(s.Article)
	comment := handler.NewCommentHandler(s.Comment)
	asked := handler.NewAskedHandler(s.Asked)
	fight := handler.NewFightHandler(s.Fight, s.Connection)
	misc := handler.NewMiscHandler(s.Report, s.Ad, s.Image, s.Bus)
	admin := handler.NewAdminHandler(s.Moderation, s.Ad, s.Fight, s.Cache)

	required := middleware.Auth(s.Tokens)
	optional := middleware.OptionalAuth(s.Tokens)

	// 登录注册
	authGroup := r.Group("/auth")
	{
		phone := authGroup.Group("/phone")
		if rl.Enabled && s.Limiter != nil {
			phone.Use(middleware.RateLimit(s.Limiter, middleware.RateRule{Name: "phone", Limit: rl.PhoneLimit, Window: rl.Window},
				s.HTTP.ProxyHeader, rl.Message, s.Log))
		}
		phone.POST("/code", auth.SendPhoneCode)
		phone.POST("/verify", auth.VerifyPhone)

		authGroup.POST("/signup", auth.Signup)
		authGroup.POST("/login", auth.Login)
		authGroup.GET("/:provider", auth.LoginRedirect)
		authGroup.GET("/:provider/callback", auth.OAuthCallback)
		authGroup.POST("/refresh", auth.Refresh)
		authGroup.POST("/logout", auth.Logout)
		authGroup.POST("/password/reset", auth.ResetPassword)
	}

	userGroup := r.Group("/user")
	{
		userGroup.GET("/:id", optional, user.Get)
		me := userGroup.Group("/me", required)
		me.GET("", user.Me)
		me.PATCH("", user.UpdateName)
		me.PUT("/password", user.ChangePassword)
		me.DELETE("", user.Delete)
		me.POST("/profile-image", user.UploadProfileImage)
	}

	schoolGroup := r.Group("/school")
	{
		schoolGroup.GET("/search", school.Search)
		schoolGroup.GET("/me", required, school.MySchool)
		schoolGroup.POST("/verify", required, school.RequestVerify)
		schoolGroup.GET("/verify", required, school.MyVerifies)
		schoolGroup.GET("/:id", school.Get)
		schoolGroup.GET("/:id/meal", school.Meals)
	}

	// 板块、文章、评论都需要登录
	boardGroup := r.Group("/board", required)
	{
		boardGroup.GET("", board.List)
		boardGroup.POST("/request", board.Request)
		boardGroup.GET("/request", board.MyRequests)
		boardGroup.GET("/:id", board.Get)
		boardGroup.GET("/:id/articles", board.Articles)
		boardGroup.POST("/:id/article", article.Create)
	}

	articleGroup := r.Group("/article", required)
	{
		articleGroup.GET("/hot", article.Hot)
		articleGroup.GET("/:id", article.Get)
		articleGroup.PATCH("/:id", article.Update)
		articleGroup.DELETE("/:id", article.Delete)
		articleGroup.POST("/:id/like", article.Like)
		articleGroup.POST("/:id/comment", comment.Create)
		articleGroup.GET("/:id/comments", comment.List)
	}

	commentGroup := r.Group("/comment", required)
	{
		commentGroup.DELETE("/:id", comment.Delete)
		commentGroup.POST("/:id/like", comment.Like)
		commentGroup.POST("/:id/recomment", comment.CreateReComment)
	}

	recommentGroup := r.Group("/recomment", required)
	{
		recommentGroup.DELETE("/:id", comment.DeleteReComment)
		recommentGroup.POST("/:id/like", comment.LikeReComment)
	}

	askedGroup := r.Group("/asked")
	{
		askedGroup.POST("", required, asked.CreateProfile)
		askedGroup.PATCH("/me", required, asked.UpdateMe)
		askedGroup.GET("/:customId", optional, asked.Profile)
		askedGroup.POST("/:customId/question", required, asked.Ask)
		askedGroup.POST("/question/:id/reply", required, asked.Reply)
		askedGroup.POST("/question/:id/deny", required, asked.Deny)
		askedGroup.DELETE("/question/:id", required, asked.Delete)
	}

	connectGroup := r.Group("/connect", required)
	{
		connectGroup.GET("", fight.Connections)
		connectGroup.POST("/:provider", fight.Connect)
		connectGroup.DELETE("/:provider", fight.Disconnect)
	}

	fightGroup := r.Group("/fight", required)
	{
		fightGroup.GET("", fight.List)
		fightGroup.GET("/:id", fight.Detail)
		fightGroup.POST("/:id/register", fight.Register)
	}

	r.POST("/report", required, misc.Report)
	r.GET("/ad", misc.RandomAd)

	imageGroup := r.Group("/image", required)
	{
		imageGroup.POST("", misc.UploadImage)
		imageGroup.GET("/:id", misc.GetImage)
		imageGroup.DELETE("/:id", misc.DeleteImage)
	}

	busGroup := r.Group("/bus", required)
	{
		busGroup.GET("/stops", misc.BusStops)
		busGroup.GET("/arrivals", misc.BusArrivals)
	}

	// 后台接口，按权限位分组
	r.POST("/admin/login", auth.AdminLogin)
	adminGroup := r.Group("/admin", middleware.AdminAuth(s.Tokens, s.Moderation))
	{
		adminGroup.GET("/me", admin.Me)

		verify := adminGroup.Group("/verify", middleware.RequirePerm(model.PermVerify))
		verify.GET("", admin.ListVerifies)
		verify.POST("/:id", admin.ProcessVerify)

		report := adminGroup.Group("/report", middleware.RequirePerm(model.PermReport))
		report.GET("", admin.ListReports)
		report.POST("/:id", admin.ProcessReport)

		boardReq := adminGroup.Group("/board-request", middleware.RequirePerm(model.PermBoard))
		boardReq.GET("", admin.ListBoardRequests)
		boardReq.POST("/:id", admin.ProcessBoardRequest)

		ad := adminGroup.Group("/ad", middleware.RequirePerm(model.PermAd))
		ad.GET("", admin.ListAds)
		ad.POST("", admin.CreateAd)
		ad.DELETE("/:id", admin.DeleteAd)

		super := adminGroup.Group("", middleware.RequirePerm(model.PermSuper))
		super.POST("/fight", admin.CreateFight)
		super.GET("/admins", admin.ListAdmins)
		super.POST("/admins", admin.CreateAdmin)
		super.POST("/cache/flush", admin.FlushCache)
		super.GET("/cache/:key", admin.CacheExists)
		super.DELETE("/cache/:key", admin.DeleteCache)
	}

	return r
}

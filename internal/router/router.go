package router

import (
	"time"

	"split-service/internal/config"
	"split-service/internal/handler"
	"split-service/internal/middleware"
	"split-service/internal/repository"
	"split-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Router struct {
	engine *gin.Engine

	userHandler    *handler.UserHandler
	friendHandler  *handler.FriendHandler
	memberHandler  *handler.MemberHandler
	groupHandler   *handler.GroupHandler
	expenseHandler *handler.ExpenseHandler

	authMW      *middleware.AuthMiddleware
	rateLimitMW *middleware.RateLimitMiddleware
}

func NewRouter(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, events *service.EventService) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogAPI())

	// Repositories
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	aliasRepo := repository.NewAliasRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db)
	requestRepo := repository.NewFriendRequestRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	// Services
	redisService := service.NewRedisService(redisClient)
	resolveService := service.NewResolveService(aliasRepo)
	userService := service.NewUserService(db, userRepo, memberRepo, cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	memberService := service.NewMemberService(memberRepo, resolveService)
	mergeService := service.NewMergeService(db, aliasRepo, memberRepo, events)
	relationshipService := service.NewRelationshipService(
		db, relationshipRepo, requestRepo, memberRepo, userRepo, groupRepo, events,
		cfg.Relationship.RequestTTL, cfg.Relationship.AllowReRequest,
	)
	groupService := service.NewGroupService(db, groupRepo, memberRepo, relationshipService)
	expenseService := service.NewExpenseService(db, expenseRepo, groupRepo, memberRepo, aliasRepo, relationshipRepo)
	lifecycleService := service.NewLifecycleService(
		db, memberRepo, aliasRepo, relationshipRepo, requestRepo, groupRepo, expenseRepo, userRepo, events,
	)

	return &Router{
		engine:         engine,
		userHandler:    handler.NewUserHandler(userService),
		friendHandler:  handler.NewFriendHandler(relationshipService, lifecycleService),
		memberHandler:  handler.NewMemberHandler(memberService, mergeService),
		groupHandler:   handler.NewGroupHandler(groupService),
		expenseHandler: handler.NewExpenseHandler(expenseService),
		authMW:         middleware.NewAuthMiddleware(cfg.JWT.Secret),
		rateLimitMW:    middleware.NewRateLimitMiddleware(redisService),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	// Public routes (no authentication required)
	public := api.Group("/auth")
	public.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
	{
		public.POST("/register", r.userHandler.Register)
		public.POST("/login", r.userHandler.Login)
	}

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	auth.Use(r.rateLimitMW.RateLimit(100, time.Minute))
	{
		auth.GET("/users/profile", r.userHandler.GetProfile)

		friends := auth.Group("/friends")
		{
			friends.GET("", r.friendHandler.ListFriends)
			friends.POST("/requests", r.friendHandler.SendRequest)
			friends.GET("/requests", r.friendHandler.ListIncomingRequests)
			friends.POST("/requests/:id/accept", r.friendHandler.AcceptRequest)
			friends.POST("/requests/:id/reject", r.friendHandler.RejectRequest)
			friends.DELETE("/:memberId", r.friendHandler.RemoveFriend)
		}

		members := auth.Group("/members")
		{
			members.POST("", r.memberHandler.CreateMember)
			members.GET("", r.memberHandler.ListMembers)
			members.GET("/:id/canonical", r.memberHandler.GetCanonical)
			members.POST("/merge", r.memberHandler.MergeMembers)
		}

		groups := auth.Group("/groups")
		{
			groups.POST("", r.groupHandler.CreateGroup)
			groups.GET("/:id", r.groupHandler.GetGroup)
			groups.POST("/:id/members", r.groupHandler.AddMembers)
			groups.GET("/:id/expenses", r.expenseHandler.ListGroupExpenses)
		}

		auth.POST("/expenses", r.expenseHandler.CreateExpense)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/buildwise-ai/buildwise-backend/config"
	adminhttp "github.com/buildwise-ai/buildwise-backend/internal/admin/http"
	adminsvc "github.com/buildwise-ai/buildwise-backend/internal/admin/service"
	httpapi "github.com/buildwise-ai/buildwise-backend/internal/api/http"
	"github.com/buildwise-ai/buildwise-backend/internal/api/http/middleware"
	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	authmw "github.com/buildwise-ai/buildwise-backend/internal/auth/middleware"
	cataloghttp "github.com/buildwise-ai/buildwise-backend/internal/catalog/http"
	catalogsvc "github.com/buildwise-ai/buildwise-backend/internal/catalog/service"
	"github.com/buildwise-ai/buildwise-backend/internal/enhance"
	floorplanshttp "github.com/buildwise-ai/buildwise-backend/internal/floorplans/http"
	floorplanssvc "github.com/buildwise-ai/buildwise-backend/internal/floorplans/service"
	"github.com/buildwise-ai/buildwise-backend/internal/generator"
	"github.com/buildwise-ai/buildwise-backend/internal/imagestore"
	"github.com/buildwise-ai/buildwise-backend/internal/mailer"
	projectshttp "github.com/buildwise-ai/buildwise-backend/internal/projects/http"
	projectssvc "github.com/buildwise-ai/buildwise-backend/internal/projects/service"
	"github.com/buildwise-ai/buildwise-backend/internal/templates"
	templateshttp "github.com/buildwise-ai/buildwise-backend/internal/templates/http"
	usersdomain "github.com/buildwise-ai/buildwise-backend/internal/users/domain"
	usershttp "github.com/buildwise-ai/buildwise-backend/internal/users/http"
	userssvc "github.com/buildwise-ai/buildwise-backend/internal/users/service"
	"github.com/buildwise-ai/buildwise-backend/internal/verification"
	verificationhttp "github.com/buildwise-ai/buildwise-backend/internal/verification/http"
)

type RouterDeps struct {
	ServiceName string
	Config      *config.Config
	Stores      *Stores
	Repos       Repositories
	// Verifier is nil when Firebase is not configured; only the dev header
	// then authenticates.
	Verifier  authmw.TokenVerifier
	Mailer    mailer.Sender
	Generator generator.Generator
	Images    *imagestore.Store
	Enhancer  *enhance.Runner
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	cfg := dep.Config
	apperr.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader, authmw.HeaderDevUserID, authmw.HeaderDevUserEmail},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := httpapi.HealthDeps{DB: httpapi.PingFunc(dep.Stores.PingStore)}
	if dep.Stores.Redis != nil {
		health.Redis = httpapi.PingFunc(dep.Stores.PingRedis)
	}
	if dep.Enhancer != nil {
		health.Enhance = dep.Enhancer
	}
	httpapi.NewHealthHandler(dep.ServiceName, cfg.App.Version, health).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static(cfg.Uploads.URLPrefix, dep.Images.UploadsDir())

	api := r.Group("/api/v1")
	requireAuth := authmw.FirebaseAuthMiddleware(dep.Verifier, authmw.Options{DevHeader: cfg.Firebase.DevHeader})

	userService := userssvc.NewUserService(dep.Repos.Users)
	projectService := projectssvc.NewProjectService(dep.Repos.Projects)
	templateStore := templates.NewStore(cfg.Uploads.TemplatesDir, dep.Images)

	var enhancer floorplanssvc.Enhancer
	if dep.Enhancer != nil {
		enhancer = dep.Enhancer
	}
	floorPlans := floorplanssvc.New(floorplanssvc.Deps{
		Projects:  projectService,
		Images:    dep.Images,
		Enhancer:  enhancer,
		Generator: dep.Generator,
		Templates: templateStore,
	})

	authed := api.Group("")
	authed.Use(requireAuth)

	usershttp.New(userService).Register(authed.Group("/users"))

	projects := authed.Group("/projects")
	projectshttp.New(projectService, floorPlans).Register(projects)
	heavy := middleware.RateLimitByUser(middleware.NewRateLimiter(cfg.Enhance.RatePerMinute))
	floorplanshttp.New(floorPlans, int64(cfg.Uploads.MaxUploadMB)<<20).Register(projects, heavy)

	templateshttp.New(templateStore).Register(authed.Group("/templates"))
	cataloghttp.New(catalogsvc.NewCatalogService(dep.Repos.Catalog)).Register(authed)

	admin := adminsvc.New(dep.Repos.Admin, dep.Mailer, userService, adminsvc.Config{
		ApproverEmail: cfg.Mail.AdminApproverEmail,
		BaseURL:       cfg.Mail.PublicBaseURL,
	})
	adminhttp.New(admin).Register(api.Group("/admin"), requireAuth, authmw.RequireRole(userService, usersdomain.RoleAdmin))

	verify := api.Group("/verification")
	verify.Use(middleware.RateLimitByUser(middleware.NewRateLimiter(cfg.Mail.VerifyRatePerMinute)))
	if dep.Stores.Redis != nil {
		svc := verification.NewService(verification.NewStore(dep.Stores.Redis), dep.Mailer)
		verificationhttp.New(svc).Register(verify)
	} else {
		unavailable := func(c *gin.Context) {
			apperr.Write(c, apperr.New(apperr.KindDependencyMissing, "email verification is not configured"))
		}
		verify.POST("/send", unavailable)
		verify.POST("/verify", unavailable)
	}

	return r
}

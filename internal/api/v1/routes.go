package v1

import (
	"time"

	"community-service/internal/api/response"
	"community-service/internal/api/v1/handlers"
	"community-service/internal/config"
	"community-service/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// bodyLimit memberi ruang untuk upload media 10MB plus field form.
const bodyLimit = 12 << 20

// NewApp builds the fiber app with the shared middleware and every route.
func NewApp(deps *config.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: response.Error,
		BodyLimit:    bodyLimit,
	})

	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Config.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	if deps.Config.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.Config.RateLimitPerMinute,
			Expiration: 1 * time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")
			},
		}))
	}

	RegisterRoutes(app, deps)
	return app
}

func RegisterRoutes(app *fiber.App, deps *config.Dependencies) {
	h := handlers.New(deps)
	auth := middleware.UseToken(deps.Tokens)

	app.Get("/health", h.Health)
	app.Get("/uploads/*", auth, h.GetFile)

	api := app.Group("/api/v1")
	api.Get("/health", h.Health)

	// Auth
	api.Post("/login", h.Login)
	api.Post("/register", middleware.OptionalToken(deps.Tokens), h.Register)
	api.Get("/verify-token", auth, h.VerifyToken)
	api.Get("/check-username/:username", h.CheckUsername)

	// User
	userRoutes := api.Group("/users", auth)
	userRoutes.Get("/me", h.Me)
	userRoutes.Get("/", h.GetAllUsers)
	userRoutes.Get("/:id", h.GetUser)
	userRoutes.Put("/:id", h.UpdateUser)
	userRoutes.Delete("/:id", h.DeleteUser)

	// Company
	companyRoutes := api.Group("/companies", auth)
	companyRoutes.Post("/", h.CreateCompany)
	companyRoutes.Get("/", h.GetCompanies)
	companyRoutes.Get("/names", h.GetCompanyNames)
	companyRoutes.Get("/:id", h.GetCompany)
	companyRoutes.Put("/:id", h.UpdateCompany)
	companyRoutes.Delete("/:id", h.DeleteCompany)
	companyRoutes.Get("/:id/logo", h.GetCompanyLogo)
	companyRoutes.Get("/:id/staff", h.GetCompanyStaff)
	companyRoutes.Get("/:id/clients", h.GetCompanyClients)

	// Staff
	staffRoutes := api.Group("/staff", auth)
	staffRoutes.Get("/", h.GetAllStaff)
	staffRoutes.Get("/by-user/:userId", h.GetStaffByUser)
	staffRoutes.Post("/:userId", h.RegisterStaff)
	staffRoutes.Get("/:id", h.GetStaff)
	staffRoutes.Put("/:id", h.UpdateStaff)
	staffRoutes.Delete("/:id", h.DeleteStaff)

	// Client
	clientRoutes := api.Group("/clients", auth)
	clientRoutes.Get("/", h.GetClients)
	clientRoutes.Get("/by-user/:userId", h.GetClientByUser)
	clientRoutes.Post("/:userId", h.RegisterClient)
	clientRoutes.Get("/:id", h.GetClient)
	clientRoutes.Put("/:id", h.UpdateClient)
	clientRoutes.Delete("/:id", h.DeleteClient)

	// Task
	taskRoutes := api.Group("/tasks", auth)
	taskRoutes.Get("/", h.GetAllTasks)
	taskRoutes.Get("/mine", h.GetMyTasks)
	taskRoutes.Get("/current-week", h.GetCurrentWeekTasks)
	taskRoutes.Post("/client/:clientId", h.CreateTask)
	taskRoutes.Get("/client/:clientId", h.GetTasksByClient)
	taskRoutes.Get("/staff/:staffId", h.GetTasksByStaff)
	taskRoutes.Get("/:id", h.GetTask)
	taskRoutes.Put("/:id", h.UpdateTask)
	taskRoutes.Delete("/:id", h.DeleteTask)
	taskRoutes.Patch("/:id/status", h.UpdateTaskStatus)

	// Media
	taskRoutes.Post("/:id/media", h.UploadMedia)
	taskRoutes.Get("/:id/media", h.GetTaskMedia)
	api.Delete("/media/:id", auth, h.DeleteMedia)

	// WebSocket feed, token lewat ?token=
	api.Get("/ws", handlers.UpgradeGuard, auth, handlers.CanSubscribe, h.TaskFeed())
}

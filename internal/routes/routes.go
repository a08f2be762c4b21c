package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tommusungu/MentaCareBack/internal/config"
	"github.com/tommusungu/MentaCareBack/internal/handlers"
	"github.com/tommusungu/MentaCareBack/internal/middleware"
	"github.com/tommusungu/MentaCareBack/internal/repository"
	"github.com/tommusungu/MentaCareBack/internal/services"
	chatws "github.com/tommusungu/MentaCareBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, logger *zap.Logger) {
	userRepo := repository.NewUserRepository(db)
	patientProfileRepo := repository.NewPatientProfileRepository(db)
	professionalProfileRepo := repository.NewProfessionalProfileRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	callRepo := repository.NewCallRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	articleRepo := repository.NewArticleRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}
	mailer := services.NewMailer(cfg.MailerBaseURL, logger)

	authHandler := handlers.NewAuthHandler(
		db,
		userRepo,
		patientProfileRepo,
		professionalProfileRepo,
		mailer,
		cfg.JWTSecret,
	)
	onboardingHandler := handlers.NewOnboardingHandler(patientProfileRepo, professionalProfileRepo, availabilityRepo)
	profileService := services.NewProfileService(patientProfileRepo, professionalProfileRepo)
	profileHandler := handlers.NewProfileHandler(profileService, patientProfileRepo, professionalProfileRepo, storageService)
	matchmakingService := services.NewMatchmakingService(professionalProfileRepo)
	availabilityChecker := services.NewAvailabilityChecker(availabilityRepo, professionalProfileRepo, appointmentRepo)
	discoveryHandler := handlers.NewProfessionalDiscoveryHandler(
		professionalProfileRepo,
		patientProfileRepo,
		matchmakingService,
		availabilityChecker,
	)
	appointmentService := services.NewAppointmentService(db, appointmentRepo, callRepo, userRepo, availabilityChecker, mailer)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService, cfg.JWTSecret)
	chatHub := chatws.NewHub(logger)
	go chatHub.Run()
	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo, patientProfileRepo, professionalProfileRepo)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)
	articleHandler := handlers.NewArticleHandler(articleRepo, professionalProfileRepo)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	patients := authProtected.Group("/patients")
	patients.Post("/onboarding", onboardingHandler.PatientOnboarding)
	patients.Get("/profile", profileHandler.GetPatientProfile)
	patients.Put("/profile", profileHandler.UpdatePatientProfile)
	patients.Post("/profile/avatar", profileHandler.UploadPatientAvatar)

	professionals := authProtected.Group("/professionals")
	professionals.Get("", discoveryHandler.ListProfessionals)
	professionals.Post("/onboarding", onboardingHandler.ProfessionalOnboarding)
	professionals.Get("/profile", profileHandler.GetProfessionalProfile)
	professionals.Put("/profile", profileHandler.UpdateProfessionalProfile)
	professionals.Post("/profile/avatar", profileHandler.UploadProfessionalAvatar)
	professionals.Put("/availability", onboardingHandler.UpdateAvailability)
	professionals.Get("/recommended", discoveryHandler.GetRecommendedProfessionals)
	professionals.Get("/:id", discoveryHandler.GetProfessionalDetail)
	professionals.Get("/:id/availability", discoveryHandler.GetWeeklyAvailability)
	professionals.Get("/:id/availability/check", appointmentHandler.CheckAvailability)

	appointments := authProtected.Group("/appointments")
	appointments.Post("", appointmentHandler.BookAppointment)
	appointments.Get("", appointmentHandler.ListAppointments)
	appointments.Get("/:id", appointmentHandler.GetAppointment)
	appointments.Put("/:id/status", appointmentHandler.UpdateStatus)
	appointments.Post("/:id/join", appointmentHandler.JoinAppointment)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/read", chatHandler.MarkRead)

	authProtected.Get("/chat/token", chatHandler.ChatToken)

	articles := authProtected.Group("/articles")
	articles.Get("", articleHandler.ListArticles)
	articles.Post("", articleHandler.CreateArticle)
	articles.Get("/:id", articleHandler.GetArticle)
	articles.Get("/:id/reviews", articleHandler.ListArticleReviews)
	articles.Post("/:id/reviews", articleHandler.ReviewArticle)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}

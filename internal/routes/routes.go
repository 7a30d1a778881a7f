package routes

import (
	"clinic-app-server/internal/config"
	"clinic-app-server/internal/handlers"
	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/scheduling"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, scheduler *scheduling.Service) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	departmentHandler := handlers.NewDepartmentHandler(db)
	doctorHandler := handlers.NewDoctorHandler(db, scheduler)
	appointmentHandler := handlers.NewAppointmentHandler(scheduler)
	reviewHandler := handlers.NewReviewHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}

		// Doctors and departments are browsable without an account
		public.GET("/departments", departmentHandler.GetDepartments)
		public.GET("/departments/:id", departmentHandler.GetDepartmentByID)
		public.GET("/doctors", doctorHandler.GetDoctors)
		public.GET("/doctors/:id", doctorHandler.GetDoctorByID)
		public.GET("/doctors/:id/availability", doctorHandler.GetAvailability)
		public.GET("/doctors/:id/reviews", reviewHandler.GetDoctorReviews)
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// User management routes (admin-only)
		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}

		// Department management (admin-only)
		departmentRoutes := private.Group("/departments")
		departmentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			departmentRoutes.POST("", departmentHandler.CreateDepartment)
			departmentRoutes.PUT("/:id", departmentHandler.UpdateDepartment)
			departmentRoutes.DELETE("/:id", departmentHandler.DeleteDepartment)
		}

		// Doctor profile management
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin), doctorHandler.CreateDoctor)
			doctorRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), doctorHandler.DeleteDoctor)

			// Owning doctor or admin; checked in the handler
			doctorRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), doctorHandler.UpdateDoctor)
			doctorRoutes.PUT("/:id/availability", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), doctorHandler.UpdateAvailability)

			// Concrete-date slots require a date in the query string
			doctorRoutes.GET("/:id/slots", appointmentHandler.GetAvailableSlots)

			// Owning doctor or admin; checked in the handler
			doctorRoutes.GET("/:id/appointments", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), appointmentHandler.GetDoctorAppointments)
		}

		// Patient themselves or admin; checked in the handler
		private.GET("/patients/:patientId/appointments", appointmentHandler.GetPatientAppointments)

		// Appointment routes; fine-grained authorization lives in the
		// scheduling service
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.BookAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), appointmentHandler.UpdateAppointment)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.CancelAppointment)
		}

		// Reviews
		private.POST("/reviews", middleware.RoleAuthMiddleware(models.RolePatient), reviewHandler.CreateReview)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}

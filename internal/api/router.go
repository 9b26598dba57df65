package api

import (
	"bug_tracker/internal/middleware" // Custom package for middleware
	"bug_tracker/internal/realtime"   // Realtime bridge
	"bug_tracker/internal/storage"    // Attachment object store
	"bug_tracker/internal/store"      // Store adapter
	"net/http"                        // HTTP status codes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Deps are the collaborators the handlers are wired with
type Deps struct {
	Store          *store.Store        // Store adapter
	Redis          *redis.Client       // Cache client
	Bridge         *realtime.Bridge    // Realtime relay source
	Objects        *storage.LocalStore // Attachment objects
	JWTSecret      string              // JWT secret key
	AllowedOrigins []string            // CORS allow list
}

// NewRouter builds the gin engine with every route registered
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()                                     // Gin router instance
	r.Use(gin.Logger(), gin.Recovery())                // Same stack gin.Default installs
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins)) // CORS for the browser client
	r.MaxMultipartMemory = MaxAttachmentBytes          // Keep uploads in memory up to the cap

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Bug Tracker API is running")
	})
	r.Group(storage.PublicPrefix, downloadOnly()).Static("/", d.Objects.Dir()) // Public attachment links

	api := r.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/register", RegisterHandler(d.Store, d.Redis)) // Registration endpoint
	auth.POST("/login", LoginHandler(d.Store, d.JWTSecret))   // Login endpoint

	// Everything else requires a valid token
	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware(d.JWTSecret, false))

	protected.GET("/projects", ListProjectsHandler(d.Store, d.Redis))                                 // List projects
	protected.POST("/projects", middleware.WritersOnly(), CreateProjectHandler(d.Store, d.Redis))     // Create project
	protected.DELETE("/projects/:id", middleware.AdminOnly(), DeleteProjectHandler(d.Store, d.Redis)) // Delete project, admin only

	protected.GET("/tickets/:projectId", ListTicketsHandler(d.Store))                        // List a project's tickets
	protected.POST("/tickets", middleware.WritersOnly(), CreateTicketHandler(d.Store))       // Create ticket
	protected.PUT("/tickets/:id", middleware.WritersOnly(), UpdateTicketHandler(d.Store))    // Update ticket
	protected.DELETE("/tickets/:id", middleware.WritersOnly(), DeleteTicketHandler(d.Store)) // Delete ticket

	protected.GET("/users", ListUsersHandler(d.Store, d.Redis)) // Users for assignment

	protected.GET("/comments/:ticketId", ListCommentsHandler(d.Store)) // Ticket discussion
	protected.POST("/comments", CreateCommentHandler(d.Store))         // Post a comment

	protected.POST("/attachments", middleware.WritersOnly(), UploadAttachmentHandler(d.Objects)) // Upload attachment

	// Realtime relays accept the token in the query string for EventSource
	live := api.Group("/realtime")
	live.Use(middleware.JWTAuthMiddleware(d.JWTSecret, true))
	live.GET("/tickets", StreamChangesHandler(d.Bridge, func(*gin.Context) string {
		return realtime.TicketsTopic
	}))
	live.GET("/comments/:ticketId", StreamChangesHandler(d.Bridge, func(c *gin.Context) string {
		return realtime.CommentsTopic(c.Param("ticketId"))
	}))

	return r
}

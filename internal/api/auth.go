package api

import (
	"bug_tracker/internal/domain" // Importing domain models
	"bug_tracker/internal/store"  // Store adapter
	"bug_tracker/internal/utils"  // Utility functions
	"context"                     // Context for Redis operations
	"errors"                      // Error matching
	"net/http"                    // HTTP status codes
	"strings"                     // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
)

// Request struct for registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`           // Email must be provided and well formed
	Password string `json:"password" binding:"required,min=8,max=72"` // bcrypt only reads 72 bytes
	FullName string `json:"full_name" binding:"required"`             // Display name must be provided
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// UserResponse is the public identity returned at login
type UserResponse struct {
	ID       string      `json:"id"`        // User ID
	FullName string      `json:"full_name"` // Display name
	Email    string      `json:"email"`     // Email
	Role     domain.Role `json:"role"`      // Role
}

// Response struct for authentication
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  UserResponse `json:"user"`  // Authenticated identity
}

// RegisterHandler creates a developer account
func RegisterHandler(s *store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondError(c, http.StatusBadRequest, CodeValidation, "Invalid request")
			return
		}
		fullName := strings.TrimSpace(req.FullName) // Normalise the display name
		if fullName == "" {
			respondError(c, http.StatusBadRequest, CodeValidation, "Full name is required")
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to hash password")
			return
		}
		// Role is never taken from the request
		user := domain.User{Email: req.Email, FullName: fullName, PasswordHash: string(hash), Role: domain.RoleDeveloper}
		// Attempt to create the user in the database
		if err := s.CreateUser(c.Request.Context(), &user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				respondError(c, http.StatusBadRequest, CodeDuplicateUser, "User already exists")
				return
			}
			respondStoreError(c, err, "")
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, utils.CacheKeyUsers) // Invalidate users list
		// Log successful registration
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,    // User ID
			"email":   user.Email, // Email
		}).Info("User registered")
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
	}
}

// LoginHandler authenticates a user and returns a JWT token with the identity
func LoginHandler(s *store.Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondError(c, http.StatusBadRequest, CodeValidation, "Invalid request")
			return
		}
		user, err := s.UserByEmail(c.Request.Context(), req.Email) // Fetch user from database
		if errors.Is(err, store.ErrNotFound) {
			// Unknown users and wrong passwords are indistinguishable
			respondError(c, http.StatusBadRequest, CodeInvalidCredentials, "Invalid credentials")
			return
		} else if err != nil {
			respondStoreError(c, err, "")
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondError(c, http.StatusBadRequest, CodeInvalidCredentials, "Invalid credentials")
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to generate token")
			return
		}
		// Return the token and identity in the response
		c.JSON(http.StatusOK, AuthResponse{
			Token: token,
			User:  UserResponse{ID: user.ID, FullName: user.FullName, Email: user.Email, Role: user.Role},
		})
	}
}

package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/eshop-admin-backend/internal/app/service"
	"github.com/ikkim/eshop-admin-backend/internal/errors"
	"github.com/ikkim/eshop-admin-backend/internal/middleware"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

type RegisterRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type UserRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"is_admin"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Register creates a self-service customer account
// POST /api/v1/users/register
func (ctrl *UserController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid registration data")
		return
	}

	user, err := ctrl.userService.Register(service.UserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Street:    req.Street,
		Apartment: req.Apartment,
		Zip:       req.Zip,
		City:      req.City,
		Country:   req.Country,
	})
	if err != nil {
		if stderrors.Is(err, service.ErrEmailAlreadyExists) {
			errors.Conflict(c, errors.AuthEmailAlreadyExists, "An account with this email already exists")
			return
		}
		log.Error("Failed to register user", err, map[string]interface{}{
			"email": req.Email,
		})
		errors.ParseAndRespond(c, http.StatusInternalServerError, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": user,
	})
}

// Login authenticates a user and issues a token
// POST /api/v1/users/login
func (ctrl *UserController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Email and password are required")
		return
	}

	user, token, err := ctrl.userService.Login(req.Email, req.Password)
	if err != nil {
		if stderrors.Is(err, service.ErrInvalidCredentials) {
			errors.BadRequest(c, errors.AuthInvalidCredentials, "Email or password is incorrect")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		errors.InternalError(c, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user.Email,
		"token": token,
	})
}

// VerifyToken decodes a token supplied in the request body and returns its
// claims, answering 400 when the token is missing, invalid or expired
// POST /api/v1/users/verify-token
func (ctrl *UserController) VerifyToken(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationRequired, "A token is required")
		return
	}

	claims, err := ctrl.userService.VerifyToken(req.Token)
	if err != nil {
		log.Debug("Token verification failed", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.AuthTokenInvalid, "Token is invalid or expired")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  claims.UserID,
		"email":    claims.Email,
		"is_admin": claims.IsAdmin,
	})
}

// GetAllUsers returns all users (Admin only)
// GET /api/v1/users
func (ctrl *UserController) GetAllUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	users, err := ctrl.userService.GetAllUsers()
	if err != nil {
		log.Error("Failed to fetch users", err, nil)
		errors.InternalError(c, "Failed to fetch users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// GetUserByID returns a user by ID (Admin only)
// GET /api/v1/users/:id
func (ctrl *UserController) GetUserByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.GetUserByID(id)
	if err != nil {
		if stderrors.Is(err, service.ErrUserNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		errors.InternalError(c, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// CreateUser creates a user, admin flag included (Admin only)
// POST /api/v1/users
func (ctrl *UserController) CreateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid user creation request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid user data")
		return
	}
	if req.Password == "" {
		errors.BadRequest(c, errors.ValidationRequired, "Password is required")
		return
	}

	user, err := ctrl.userService.CreateUser(service.UserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		IsAdmin:   req.IsAdmin,
		Street:    req.Street,
		Apartment: req.Apartment,
		Zip:       req.Zip,
		City:      req.City,
		Country:   req.Country,
	})
	if err != nil {
		if stderrors.Is(err, service.ErrEmailAlreadyExists) {
			errors.Conflict(c, errors.AuthEmailAlreadyExists, "An account with this email already exists")
			return
		}
		log.Error("Failed to create user", err, map[string]interface{}{
			"email": req.Email,
		})
		errors.ParseAndRespond(c, http.StatusInternalServerError, err, "create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": user,
	})
}

// UpdateUser updates a user (Admin only)
// PUT /api/v1/users/:id
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid user update request", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid user data")
		return
	}

	user, err := ctrl.userService.UpdateUser(id, service.UserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		IsAdmin:   req.IsAdmin,
		Street:    req.Street,
		Apartment: req.Apartment,
		Zip:       req.Zip,
		City:      req.City,
		Country:   req.Country,
	})
	if err != nil {
		if stderrors.Is(err, service.ErrUserNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "User not found")
			return
		}
		if stderrors.Is(err, service.ErrEmailAlreadyExists) {
			errors.Conflict(c, errors.AuthEmailAlreadyExists, "An account with this email already exists")
			return
		}
		log.Error("Failed to update user", err, map[string]interface{}{
			"user_id": id,
		})
		errors.InternalError(c, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// DeleteUser deletes a user (Admin only)
// DELETE /api/v1/users/:id
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.userService.DeleteUser(id); err != nil {
		if stderrors.Is(err, service.ErrUserNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to delete user", err, map[string]interface{}{
			"user_id": id,
		})
		errors.InternalError(c, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

// CountUsers returns the total user count (Admin only)
// GET /api/v1/users/get/count
func (ctrl *UserController) CountUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	count, err := ctrl.userService.CountUsers()
	if err != nil {
		log.Error("Failed to count users", err, nil)
		errors.InternalError(c, "Failed to count users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

// parseIDParam parses a numeric path parameter, answering 400 itself when the
// value is not a valid ID.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	idStr := c.Param(name)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID parameter", map[string]interface{}{
			"param": name,
			"value": idStr,
		})
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

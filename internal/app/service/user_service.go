package service

import (
	"errors"
	"time"

	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"github.com/ikkim/eshop-admin-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserInput carries the writable user fields for create and update.
type UserInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	IsAdmin   bool
	Street    string
	Apartment string
	Zip       string
	City      string
	Country   string
}

type UserService interface {
	Register(input UserInput) (*model.User, error)
	Login(email, password string) (*model.User, string, error)
	VerifyToken(token string) (*util.Claims, error)
	GetAllUsers() ([]model.User, error)
	GetUserByID(id uint) (*model.User, error)
	CreateUser(input UserInput) (*model.User, error)
	UpdateUser(id uint, input UserInput) (*model.User, error)
	DeleteUser(id uint) error
	CountUsers() (int64, error)
}

type userService struct {
	userRepo    repository.UserRepository
	jwtSecret   string
	tokenExpiry time.Duration
}

func NewUserService(userRepo repository.UserRepository, jwtSecret string, tokenExpiry time.Duration) UserService {
	return &userService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

// Register creates a self-service account. The admin flag is always false
// here; only the admin-gated CreateUser can grant it.
func (s *userService) Register(input UserInput) (*model.User, error) {
	input.IsAdmin = false
	return s.CreateUser(input)
}

func (s *userService) Login(email, password string) (*model.User, string, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, "", ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, "", err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, "", ErrInvalidCredentials
	}

	token, err := util.GenerateToken(user.ID, user.Email, user.IsAdmin, s.jwtSecret, s.tokenExpiry)
	if err != nil {
		logger.Error("Failed to generate token", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   email,
		})
		return nil, "", err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id":  user.ID,
		"email":    email,
		"is_admin": user.IsAdmin,
	})

	return user, token, nil
}

func (s *userService) VerifyToken(token string) (*util.Claims, error) {
	return util.ValidateToken(token, s.jwtSecret)
}

func (s *userService) GetAllUsers() ([]model.User, error) {
	return s.userRepo.FindAll()
}

func (s *userService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) CreateUser(input UserInput) (*model.User, error) {
	logger.Info("Creating user", map[string]interface{}{
		"email":    input.Email,
		"is_admin": input.IsAdmin,
	})

	existingUser, err := s.userRepo.FindByEmail(input.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": input.Email,
		})
		return nil, err
	}
	if existingUser != nil {
		logger.Warn("User creation failed: email already exists", map[string]interface{}{
			"email": input.Email,
		})
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": input.Email,
		})
		return nil, err
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Phone:        input.Phone,
		IsAdmin:      input.IsAdmin,
		Street:       input.Street,
		Apartment:    input.Apartment,
		Zip:          input.Zip,
		City:         input.City,
		Country:      input.Country,
	}

	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": input.Email,
		})
		return nil, err
	}

	logger.Info("User created successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

// UpdateUser replaces a user's writable fields. An empty password keeps the
// existing hash.
func (s *userService) UpdateUser(id uint, input UserInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	passwordHash := user.PasswordHash
	if input.Password != "" {
		passwordHash, err = util.HashPassword(input.Password)
		if err != nil {
			logger.Error("Failed to hash password", err, map[string]interface{}{
				"user_id": id,
			})
			return nil, err
		}
	}

	user.Name = input.Name
	user.Email = input.Email
	user.PasswordHash = passwordHash
	user.Phone = input.Phone
	user.IsAdmin = input.IsAdmin
	user.Street = input.Street
	user.Apartment = input.Apartment
	user.Zip = input.Zip
	user.City = input.City
	user.Country = input.Country

	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	logger.Info("User updated successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

func (s *userService) DeleteUser(id uint) error {
	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	logger.Info("User deleted successfully", map[string]interface{}{
		"user_id": id,
	})
	return nil
}

func (s *userService) CountUsers() (int64, error) {
	return s.userRepo.Count()
}

package controller

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/app/service"
	"github.com/ikkim/eshop-admin-backend/internal/errors"
	"github.com/ikkim/eshop-admin-backend/internal/middleware"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
	}
}

type CategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// GetAllCategories returns all categories
// GET /api/v1/categories
func (ctrl *CategoryController) GetAllCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.categoryService.GetAllCategories()
	if err != nil {
		log.Error("Failed to fetch categories", err, nil)
		errors.InternalError(c, "Failed to fetch categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategoryByID returns a category by ID
// GET /api/v1/categories/:id
func (ctrl *CategoryController) GetCategoryByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := ctrl.categoryService.GetCategoryByID(id)
	if err != nil {
		if stderrors.Is(err, service.ErrCategoryNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "Category not found")
			return
		}
		log.Error("Failed to fetch category", err, map[string]interface{}{
			"category_id": id,
		})
		errors.InternalError(c, "Failed to fetch category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
	})
}

// CreateCategory creates a new category (Admin only)
// POST /api/v1/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid category creation request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid category data")
		return
	}

	category := &model.Category{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	}
	if err := ctrl.categoryService.CreateCategory(category); err != nil {
		log.Error("Failed to create category", err, map[string]interface{}{
			"name": req.Name,
		})
		errors.ParseAndRespond(c, http.StatusInternalServerError, err, "create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"category": category,
	})
}

// UpdateCategory updates a category (Admin only)
// PUT /api/v1/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid category update request", map[string]interface{}{
			"category_id": id,
			"error":       err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid category data")
		return
	}

	category := &model.Category{
		ID:    id,
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	}
	if err := ctrl.categoryService.UpdateCategory(category); err != nil {
		if stderrors.Is(err, service.ErrCategoryNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "Category not found")
			return
		}
		log.Error("Failed to update category", err, map[string]interface{}{
			"category_id": id,
		})
		errors.ParseAndRespond(c, http.StatusInternalServerError, err, "update category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
	})
}

// DeleteCategory deletes a category (Admin only)
// DELETE /api/v1/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.categoryService.DeleteCategory(id); err != nil {
		if stderrors.Is(err, service.ErrCategoryNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "Category not found")
			return
		}
		log.Error("Failed to delete category", err, map[string]interface{}{
			"category_id": id,
		})
		errors.InternalError(c, "Failed to delete category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category deleted successfully",
	})
}

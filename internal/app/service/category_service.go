package service

import (
	"errors"

	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryService interface {
	GetAllCategories() ([]model.Category, error)
	GetCategoryByID(id uint) (*model.Category, error)
	CreateCategory(category *model.Category) error
	UpdateCategory(category *model.Category) error
	DeleteCategory(id uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) GetAllCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *categoryService) GetCategoryByID(id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) CreateCategory(category *model.Category) error {
	if err := s.categoryRepo.Create(category); err != nil {
		return err
	}

	logger.Info("Category created successfully", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})
	return nil
}

func (s *categoryService) UpdateCategory(category *model.Category) error {
	existing, err := s.categoryRepo.FindByID(category.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	existing.Name = category.Name
	existing.Icon = category.Icon
	existing.Color = category.Color

	if err := s.categoryRepo.Update(existing); err != nil {
		return err
	}
	*category = *existing

	logger.Info("Category updated successfully", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})
	return nil
}

// DeleteCategory removes the category record only. Products referencing it
// keep their category_id; the admin frontend is expected to reassign them.
func (s *categoryService) DeleteCategory(id uint) error {
	if err := s.categoryRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	logger.Info("Category deleted successfully", map[string]interface{}{
		"category_id": id,
	})
	return nil
}

package repository

import (
	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductFilter narrows product listings. An empty filter matches everything.
type ProductFilter struct {
	CategoryIDs []uint
	Featured    *bool
	Limit       int
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindWithFilter(filter ProductFilter) ([]model.Product, error)
	FindByID(id uint) (*model.Product, error)
	FindFeatured(limit int) ([]model.Product, error)
	Update(product *model.Product) error
	Delete(id uint) error
	Count() (int64, error)
	AllImageURLs() ([]string, error)
	CountImageReferences(url string) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":        product.Name,
		"category_id": product.CategoryID,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":        product.Name,
			"category_id": product.CategoryID,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) baseQuery() *gorm.DB {
	return r.db.Model(&model.Product{}).Preload("Category")
}

func (r *productRepository) FindAll() ([]model.Product, error) {
	return r.FindWithFilter(ProductFilter{})
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category_ids": filter.CategoryIDs,
		"featured":     filter.Featured,
		"limit":        filter.Limit,
	})

	query := r.baseQuery()

	if len(filter.CategoryIDs) > 0 {
		query = query.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var products []model.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"category_ids": filter.CategoryIDs,
		})
		return nil, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.baseQuery().First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return &product, nil
}

func (r *productRepository) FindFeatured(limit int) ([]model.Product, error) {
	featured := true
	return r.FindWithFilter(ProductFilter{Featured: &featured, Limit: limit})
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	result := r.db.Delete(&model.Product{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete product from database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Product deleted from database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (r *productRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Product{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count products in database", err, nil)
		return 0, err
	}
	return count, nil
}

// AllImageURLs returns the primary and gallery image URLs of every live
// product. The orphaned-upload sweep uses this as its reference set.
func (r *productRepository) AllImageURLs() ([]string, error) {
	var products []model.Product
	if err := r.db.Select("image", "images").Find(&products).Error; err != nil {
		logger.Error("Failed to collect product image URLs", err, nil)
		return nil, err
	}

	var urls []string
	for _, p := range products {
		if p.Image != "" {
			urls = append(urls, p.Image)
		}
		urls = append(urls, p.Images...)
	}
	return urls, nil
}

// CountImageReferences reports how many live products still reference the
// given image URL, as the primary image or inside the gallery. Content
// addressing deduplicates identical uploads into one file, so a file may back
// more than one product.
func (r *productRepository) CountImageReferences(url string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).
		Where("image = ? OR images LIKE ?", url, "%"+url+"%").
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to count image references", err, map[string]interface{}{
			"url": url,
		})
		return 0, err
	}
	return count, nil
}

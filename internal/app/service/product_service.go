package service

import (
	"errors"

	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrImageRequired   = errors.New("an image is required")
)

// ProductInput carries the writable product fields for create and update.
type ProductInput struct {
	Name            string
	Description     string
	RichDescription string
	Brand           string
	Price           float64
	CategoryID      uint
	CountInStock    int
	Rating          float64
	NumReviews      int
	IsFeatured      bool
}

type ProductService interface {
	GetAllProducts(categoryIDs []uint) ([]model.Product, error)
	GetProductByID(id uint) (*model.Product, error)
	GetFeaturedProducts(limit int) ([]model.Product, error)
	CountProducts() (int64, error)
	CreateProduct(requestBase string, input ProductInput, image *Upload) (*model.Product, error)
	UpdateProduct(requestBase string, id uint, input ProductInput, image *Upload) (*model.Product, error)
	ReplaceGallery(requestBase string, id uint, uploads []Upload) (*model.Product, error)
	DeleteProduct(id uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	images       ImageService
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	images ImageService,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		images:       images,
	}
}

func (s *productService) GetAllProducts(categoryIDs []uint) ([]model.Product, error) {
	return s.productRepo.FindWithFilter(repository.ProductFilter{CategoryIDs: categoryIDs})
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) GetFeaturedProducts(limit int) ([]model.Product, error) {
	return s.productRepo.FindFeatured(limit)
}

func (s *productService) CountProducts() (int64, error) {
	return s.productRepo.Count()
}

// CreateProduct validates the category reference, ingests the mandatory
// primary image and persists the new product.
func (s *productService) CreateProduct(requestBase string, input ProductInput, image *Upload) (*model.Product, error) {
	if err := s.checkCategory(input.CategoryID); err != nil {
		return nil, err
	}
	if image == nil {
		logger.Warn("Product creation rejected: no image supplied", map[string]interface{}{
			"name": input.Name,
		})
		return nil, ErrImageRequired
	}

	imageURL, err := s.images.Ingest(requestBase, *image)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:            input.Name,
		Description:     input.Description,
		RichDescription: input.RichDescription,
		Brand:           input.Brand,
		Price:           input.Price,
		CategoryID:      input.CategoryID,
		CountInStock:    input.CountInStock,
		Rating:          input.Rating,
		NumReviews:      input.NumReviews,
		IsFeatured:      input.IsFeatured,
		Image:           imageURL,
	}

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

// UpdateProduct replaces a product's fields. When a new image is supplied the
// old file is retired after the record points at the new one; without an
// image the existing address is kept.
func (s *productService) UpdateProduct(requestBase string, id uint, input ProductInput, image *Upload) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if err := s.checkCategory(input.CategoryID); err != nil {
		return nil, err
	}

	oldImageURL := ""
	if image != nil {
		newImageURL, err := s.images.Ingest(requestBase, *image)
		if err != nil {
			return nil, err
		}
		if newImageURL != product.Image {
			oldImageURL = product.Image
		}
		product.Image = newImageURL
	}

	product.Name = input.Name
	product.Description = input.Description
	product.RichDescription = input.RichDescription
	product.Brand = input.Brand
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.CountInStock = input.CountInStock
	product.Rating = input.Rating
	product.NumReviews = input.NumReviews
	product.IsFeatured = input.IsFeatured

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	// Retire the superseded file only after the record update landed.
	if oldImageURL != "" {
		s.retireImages(oldImageURL)
	}

	logger.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

// ReplaceGallery replaces the product's gallery wholesale: the new files are
// written first, the record is updated to exactly the new list, and only then
// are the no-longer-referenced old files retired.
func (s *productService) ReplaceGallery(requestBase string, id uint, uploads []Upload) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	oldURLs := product.Images

	// Content-addressed files can be shared across products, so a write
	// rollback inside the pipeline must spare everything any record points at.
	keep, err := s.productRepo.AllImageURLs()
	if err != nil {
		return nil, err
	}

	newURLs, err := s.images.IngestGallery(requestBase, keep, uploads)
	if err != nil {
		return nil, err
	}

	product.Images = newURLs
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	newSet := make(map[string]bool, len(newURLs))
	for _, url := range newURLs {
		newSet[url] = true
	}
	var superseded []string
	for _, url := range oldURLs {
		if !newSet[url] {
			superseded = append(superseded, url)
		}
	}
	s.retireImages(superseded...)

	logger.Info("Product gallery replaced", map[string]interface{}{
		"product_id": product.ID,
		"count":      len(newURLs),
	})
	return product, nil
}

// DeleteProduct removes the store record only. Image files are left to the
// orphan sweep.
func (s *productService) DeleteProduct(id uint) error {
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	logger.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

// retireImages deletes superseded files, skipping any that another product
// still references: identical uploads deduplicate into one content-addressed
// file, so a file retired by one product may still back others. When the
// reference check itself fails the file is left for the orphan sweep.
func (s *productService) retireImages(urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		refs, err := s.productRepo.CountImageReferences(url)
		if err != nil {
			logger.Warn("Could not check image references, leaving file for the sweep", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
			continue
		}
		if refs > 0 {
			logger.Debug("Superseded image still referenced, keeping file", map[string]interface{}{
				"url":  url,
				"refs": refs,
			})
			continue
		}
		s.images.Remove(url)
	}
}

func (s *productService) checkCategory(categoryID uint) error {
	if _, err := s.categoryRepo.FindByID(categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Invalid category reference", map[string]interface{}{
				"category_id": categoryID,
			})
			return ErrInvalidCategory
		}
		return err
	}
	return nil
}

package controller

import (
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/eshop-admin-backend/internal/app/service"
	"github.com/ikkim/eshop-admin-backend/internal/errors"
	"github.com/ikkim/eshop-admin-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ProductForm is the multipart field set for product create and update. The
// image files ride alongside in the same request.
type ProductForm struct {
	Name            string  `form:"name" binding:"required"`
	Description     string  `form:"description" binding:"required"`
	RichDescription string  `form:"rich_description"`
	Brand           string  `form:"brand"`
	Price           float64 `form:"price" binding:"required,gt=0"`
	CategoryID      uint    `form:"category" binding:"required"`
	CountInStock    int     `form:"count_in_stock" binding:"gte=0,lte=255"`
	Rating          float64 `form:"rating" binding:"gte=0,lte=5"`
	NumReviews      int     `form:"num_reviews" binding:"gte=0"`
	IsFeatured      bool    `form:"is_featured"`
}

// GetAllProducts returns products, optionally filtered by category IDs
// GET /api/v1/products?categories=1,2,3
func (ctrl *ProductController) GetAllProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categoryIDs, ok := parseCategoryFilter(c)
	if !ok {
		return
	}

	products, err := ctrl.productService.GetAllProducts(categoryIDs)
	if err != nil {
		log.Error("Failed to fetch products", err, nil)
		errors.InternalError(c, "Failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProductByID returns a product by ID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(id)
	if err != nil {
		if stderrors.Is(err, service.ErrProductNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		errors.InternalError(c, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// GetFeaturedProducts returns up to :count featured products
// GET /api/v1/products/get/featured/:count
func (ctrl *ProductController) GetFeaturedProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	countStr := c.Param("count")
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 0 {
		log.Warn("Invalid featured count", map[string]interface{}{
			"count": countStr,
		})
		errors.BadRequest(c, errors.ValidationInvalidRange, "Count must be a non-negative number")
		return
	}

	products, err := ctrl.productService.GetFeaturedProducts(count)
	if err != nil {
		log.Error("Failed to fetch featured products", err, nil)
		errors.InternalError(c, "Failed to fetch featured products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// CountProducts returns the total product count (Admin only)
// GET /api/v1/products/get/count
func (ctrl *ProductController) CountProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	count, err := ctrl.productService.CountProducts()
	if err != nil {
		log.Error("Failed to count products", err, nil)
		errors.InternalError(c, "Failed to count products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

// CreateProduct creates a product from a multipart form (Admin only). The
// "image" file part is mandatory.
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var form ProductForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid product data")
		return
	}

	upload, err := readFormImage(c, "image")
	if err != nil {
		log.Warn("Product creation request has no usable image", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationRequired, "An image file is required")
		return
	}

	product, err := ctrl.productService.CreateProduct(requestBase(c), productInput(form), upload)
	if err != nil {
		ctrl.respondProductError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product": product,
	})
}

// UpdateProduct updates a product from a multipart form (Admin only). The
// "image" file part is optional; without it the current image is kept.
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var form ProductForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("Invalid product update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid product data")
		return
	}

	var upload *service.Upload
	if _, err := c.FormFile("image"); err == nil {
		upload, err = readFormImage(c, "image")
		if err != nil {
			log.Warn("Failed to read uploaded image", map[string]interface{}{
				"product_id": id,
				"error":      err.Error(),
			})
			errors.BadRequest(c, errors.UploadFailed, "Could not read the uploaded image")
			return
		}
	}

	product, err := ctrl.productService.UpdateProduct(requestBase(c), id, productInput(form), upload)
	if err != nil {
		ctrl.respondProductError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// UpdateGallery replaces a product's gallery with the uploaded "images" file
// parts (Admin only).
// PUT /api/v1/products/gallery-images/:id
func (ctrl *ProductController) UpdateGallery(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("Invalid gallery update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid multipart form")
		return
	}

	uploads := make([]service.Upload, 0, len(form.File["images"]))
	for _, fileHeader := range form.File["images"] {
		upload, err := readFileHeader(fileHeader)
		if err != nil {
			log.Warn("Failed to read gallery image", map[string]interface{}{
				"product_id": id,
				"filename":   fileHeader.Filename,
				"error":      err.Error(),
			})
			errors.BadRequest(c, errors.UploadFailed, "Could not read an uploaded image")
			return
		}
		uploads = append(uploads, *upload)
	}

	product, err := ctrl.productService.ReplaceGallery(requestBase(c), id, uploads)
	if err != nil {
		ctrl.respondProductError(c, err, "Failed to update product gallery")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// DeleteProduct deletes a product (Admin only)
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(id); err != nil {
		if stderrors.Is(err, service.ErrProductNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "Product not found")
			return
		}
		log.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		errors.InternalError(c, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// respondProductError maps service errors onto the response taxonomy shared
// by the product write endpoints.
func (ctrl *ProductController) respondProductError(c *gin.Context, err error, fallback string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case stderrors.Is(err, service.ErrProductNotFound):
		errors.NotFound(c, errors.ResourceNotFound, "Product not found")
	case stderrors.Is(err, service.ErrInvalidCategory):
		errors.BadRequest(c, errors.ValidationInvalidRef, "Category does not exist")
	case stderrors.Is(err, service.ErrImageRequired):
		errors.BadRequest(c, errors.ValidationRequired, "An image file is required")
	case stderrors.Is(err, service.ErrInvalidImageType):
		errors.BadRequest(c, errors.UploadInvalidFileType, "Only PNG and JPEG images are accepted")
	case stderrors.Is(err, service.ErrImageTooLarge):
		errors.BadRequest(c, errors.UploadFileTooLarge, "Image file exceeds the size limit")
	case stderrors.Is(err, service.ErrTooManyImages):
		errors.BadRequest(c, errors.UploadTooManyFiles, "Too many gallery images")
	case stderrors.Is(err, service.ErrImageEncoding):
		errors.BadRequest(c, errors.UploadEncodingFailed, "Image could not be processed")
	default:
		log.Error(fallback, err, nil)
		errors.InternalError(c, fallback)
	}
}

func productInput(form ProductForm) service.ProductInput {
	return service.ProductInput{
		Name:            form.Name,
		Description:     form.Description,
		RichDescription: form.RichDescription,
		Brand:           form.Brand,
		Price:           form.Price,
		CategoryID:      form.CategoryID,
		CountInStock:    form.CountInStock,
		Rating:          form.Rating,
		NumReviews:      form.NumReviews,
		IsFeatured:      form.IsFeatured,
	}
}

// parseCategoryFilter reads the optional comma-separated categories query
// parameter, answering 400 itself on malformed IDs.
func parseCategoryFilter(c *gin.Context) ([]uint, bool) {
	raw := c.Query("categories")
	if raw == "" {
		return nil, true
	}

	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			middleware.GetLoggerFromContext(c).Warn("Invalid category filter", map[string]interface{}{
				"categories": raw,
			})
			errors.BadRequest(c, errors.ValidationInvalidID, "Invalid category filter")
			return nil, false
		}
		ids = append(ids, uint(id))
	}
	return ids, true
}

// readFormImage reads a single named file part into memory.
func readFormImage(c *gin.Context, field string) (*service.Upload, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return readFileHeader(fileHeader)
}

func readFileHeader(fileHeader *multipart.FileHeader) (*service.Upload, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &service.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// requestBase reconstructs the scheme and host the client used, so stored
// image URLs point back at this deployment.
func requestBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

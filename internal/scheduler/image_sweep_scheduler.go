package scheduler

import (
	"time"

	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/internal/app/service"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ImageSweepScheduler periodically deletes stored image files that no product
// references anymore. Superseded files are normally removed inline on update,
// but a crash between the file write and the record update, or a failed
// best-effort delete, can leave strays behind. This sweep is the reconciler.
type ImageSweepScheduler struct {
	cron         *cron.Cron
	imageService service.ImageService
	productRepo  repository.ProductRepository
	maxAge       time.Duration
}

func NewImageSweepScheduler(
	imageService service.ImageService,
	productRepo repository.ProductRepository,
	maxAge time.Duration,
) *ImageSweepScheduler {
	return &ImageSweepScheduler{
		cron:         cron.New(),
		imageService: imageService,
		productRepo:  productRepo,
		maxAge:       maxAge,
	}
}

// Start schedules the sweep to run nightly at 04:00.
func (s *ImageSweepScheduler) Start() error {
	_, err := s.cron.AddFunc("0 4 * * *", s.Run)
	if err != nil {
		logger.Error("Failed to add cron job for image sweep", err)
		return err
	}

	s.cron.Start()
	logger.Info("Image sweep scheduler started (daily at 4:00 AM)", nil)
	return nil
}

// Run performs one sweep pass. Exposed so it can also be triggered manually.
func (s *ImageSweepScheduler) Run() {
	logger.Info("Starting orphaned image sweep", nil)

	referenced, err := s.productRepo.AllImageURLs()
	if err != nil {
		logger.Error("Failed to collect referenced image URLs", err)
		return
	}

	removed, err := s.imageService.SweepOrphans(referenced, s.maxAge)
	if err != nil {
		logger.Error("Orphaned image sweep failed", err)
		return
	}

	logger.Info("Orphaned image sweep completed", map[string]interface{}{
		"removed":    removed,
		"referenced": len(referenced),
	})
}

// Stop stops the scheduler.
func (s *ImageSweepScheduler) Stop() {
	logger.Info("Stopping image sweep scheduler...", nil)
	s.cron.Stop()
	logger.Info("Image sweep scheduler stopped", nil)
}

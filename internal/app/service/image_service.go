package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/storage"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
)

var (
	ErrInvalidImageType = errors.New("invalid image type")
	ErrImageTooLarge    = errors.New("image file too large")
	ErrTooManyImages    = errors.New("too many gallery images")
	ErrImageEncoding    = errors.New("image could not be decoded")
)

// maxImageDimension bounds the larger side of every stored image.
const maxImageDimension = 800

// allowedImageTypes is the upload content-type allow-list.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// Upload is one raw multipart image part.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageService is the product image ingestion pipeline: it validates uploaded
// blobs, transcodes them to bounded lossless WebP, writes them to durable
// storage and retires superseded files. Stored names are content-addressed
// ({stem}-{sha256 prefix}.webp) so identical uploads deduplicate and
// delete/write sequences cannot race each other into a collision.
type ImageService interface {
	Ingest(requestBase string, upload Upload) (string, error)
	IngestGallery(requestBase string, keep []string, uploads []Upload) ([]string, error)
	Remove(urls ...string)
	SweepOrphans(referenced []string, maxAge time.Duration) (int, error)
}

type imageService struct {
	store       storage.Storage
	maxFileSize int64
}

func NewImageService(store storage.Storage, maxFileSize int64) ImageService {
	return &imageService{
		store:       store,
		maxFileSize: maxFileSize,
	}
}

// Ingest validates, transcodes and stores a single image, returning its
// fully-qualified public URL.
func (s *imageService) Ingest(requestBase string, upload Upload) (string, error) {
	filename, data, err := s.transcode(upload)
	if err != nil {
		return "", err
	}

	if err := s.store.Save(filename, data, "image/webp"); err != nil {
		logger.Error("Failed to write processed image", err, map[string]interface{}{
			"filename": filename,
		})
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	url := s.store.URL(requestBase, filename)
	logger.Info("Image ingested", map[string]interface{}{
		"filename": filename,
		"bytes":    len(data),
	})
	return url, nil
}

// IngestGallery processes a full gallery replacement: every upload is
// transcoded and written sequentially in upload order, and the resulting URL
// list is returned for the caller to persist wholesale. The gallery bound is
// enforced here, independent of whatever the client promised. If a write
// fails partway, files written by this call are removed again, sparing any
// whose name appears in keep because an existing record still points at it.
func (s *imageService) IngestGallery(requestBase string, keep []string, uploads []Upload) ([]string, error) {
	if len(uploads) > model.MaxGalleryImages {
		logger.Warn("Gallery upload exceeds image limit", map[string]interface{}{
			"count": len(uploads),
			"limit": model.MaxGalleryImages,
		})
		return nil, ErrTooManyImages
	}

	// Validate and transcode everything before the first write, so a bad
	// upload cannot leave a half-written gallery behind.
	type processed struct {
		filename string
		data     []byte
	}
	batch := make([]processed, 0, len(uploads))
	for _, upload := range uploads {
		filename, data, err := s.transcode(upload)
		if err != nil {
			return nil, err
		}
		batch = append(batch, processed{filename: filename, data: data})
	}

	keepSet := make(map[string]bool, len(keep))
	for _, url := range keep {
		keepSet[path.Base(url)] = true
	}

	urls := make([]string, 0, len(batch))
	written := make([]string, 0, len(batch))
	for _, p := range batch {
		if err := s.store.Save(p.filename, p.data, "image/webp"); err != nil {
			logger.Error("Failed to write gallery image, rolling back batch", err, map[string]interface{}{
				"filename": p.filename,
				"written":  len(written),
			})
			for _, name := range written {
				if keepSet[name] {
					continue
				}
				if delErr := s.store.Delete(name); delErr != nil {
					logger.Warn("Failed to roll back gallery image", map[string]interface{}{
						"filename": name,
						"error":    delErr.Error(),
					})
				}
			}
			return nil, fmt.Errorf("failed to store gallery image: %w", err)
		}
		written = append(written, p.filename)
		urls = append(urls, s.store.URL(requestBase, p.filename))
	}

	logger.Info("Gallery ingested", map[string]interface{}{
		"count": len(urls),
	})
	return urls, nil
}

// Remove deletes superseded files by URL. Failures are logged and swallowed:
// cleanup never fails the write path, and the orphan sweep picks up leftovers.
func (s *imageService) Remove(urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		filename := path.Base(url)
		if err := s.store.Delete(filename); err != nil {
			logger.Warn("Failed to delete superseded image", map[string]interface{}{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}
		logger.Debug("Superseded image deleted", map[string]interface{}{
			"filename": filename,
		})
	}
}

// SweepOrphans deletes stored files that no product references anymore and
// that are older than maxAge. The age guard keeps the sweep from racing an
// ingest whose record update has not landed yet.
func (s *imageService) SweepOrphans(referenced []string, maxAge time.Duration) (int, error) {
	refSet := make(map[string]bool, len(referenced))
	for _, url := range referenced {
		refSet[path.Base(url)] = true
	}

	files, err := s.store.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, file := range files {
		if refSet[file.Name] || file.ModTime.After(cutoff) {
			continue
		}
		if err := s.store.Delete(file.Name); err != nil {
			logger.Warn("Failed to sweep orphaned image", map[string]interface{}{
				"filename": file.Name,
				"error":    err.Error(),
			})
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Orphaned images swept", map[string]interface{}{
			"removed": removed,
			"total":   len(files),
		})
	}
	return removed, nil
}

// transcode validates an upload and converts it to bounded lossless WebP,
// returning the content-addressed filename and the encoded bytes.
func (s *imageService) transcode(upload Upload) (string, []byte, error) {
	if !allowedImageTypes[upload.ContentType] {
		logger.Warn("Rejected upload with invalid content type", map[string]interface{}{
			"filename":     upload.Filename,
			"content_type": upload.ContentType,
		})
		return "", nil, ErrInvalidImageType
	}
	if s.maxFileSize > 0 && int64(len(upload.Data)) > s.maxFileSize {
		logger.Warn("Rejected oversized upload", map[string]interface{}{
			"filename": upload.Filename,
			"bytes":    len(upload.Data),
			"max":      s.maxFileSize,
		})
		return "", nil, ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		logger.Warn("Failed to decode uploaded image", map[string]interface{}{
			"filename": upload.Filename,
			"error":    err.Error(),
		})
		return "", nil, ErrImageEncoding
	}

	// Shrink so the larger dimension fits the bound; never upscale.
	bounds := img.Bounds()
	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		logger.Error("Failed to encode image as WebP", err, map[string]interface{}{
			"filename": upload.Filename,
		})
		return "", nil, ErrImageEncoding
	}

	data := buf.Bytes()
	sum := sha256.Sum256(data)
	filename := fmt.Sprintf("%s-%s.webp", sanitizeStem(upload.Filename), hex.EncodeToString(sum[:])[:16])
	return filename, data, nil
}

// sanitizeStem reduces an original filename to a URL- and filesystem-safe
// stem: extension stripped, spaces dashed, anything else non-alphanumeric
// dropped.
func sanitizeStem(filename string) string {
	stem := path.Base(filename)
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	stem = strings.ReplaceAll(stem, " ", "-")
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, stem)
	if stem == "" {
		stem = "image"
	}
	return stem
}

package file

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Import for PNG decoding support
	"math"
	"path"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/storage"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/image/draw"
)

var ErrInvalidImage = errors.New("punch photo is not a valid jpeg or png image")

const (
	maxPhotoBytes = 150 * 1024
	minPhotoBytes = 50 * 1024
)

type FileService interface {
	// UploadPunchPhoto stores a compressed JPEG copy of the photo and returns
	// its storage path. Identical photos map to the same path.
	UploadPunchPhoto(ctx context.Context, employeeID string, date time.Time, photo []byte) (string, error)

	DeleteFile(ctx context.Context, path string) error
	GetFileURL(path string) string
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// UploadPunchPhoto writes attendance/{date}/{employeeID}-{digest}.jpg where
// digest is a blake2b hash of the original bytes.
func (s *fileServiceImpl) UploadPunchPhoto(ctx context.Context, employeeID string, date time.Time, photo []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(photo))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	compressed, err := compressImage(img, len(photo), maxPhotoBytes, minPhotoBytes)
	if err != nil {
		return "", fmt.Errorf("failed to compress image: %w", err)
	}

	sum := blake2b.Sum256(photo)
	name := fmt.Sprintf("%s-%s.jpg", employeeID, hex.EncodeToString(sum[:12]))
	p := path.Join("attendance", date.Format("2006-01-02"), name)

	uploadedPath, err := s.storage.Upload(ctx, bytes.NewReader(compressed), p, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload punch photo: %w", err)
	}

	return uploadedPath, nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

func (s *fileServiceImpl) GetFileURL(path string) string {
	return s.storage.URL(path)
}

// ==================== HELPER FUNCTIONS ====================

// compressImage re-encodes img as JPEG, lowering quality and then resolution
// until the result fits under maxSize. Results under minSize are accepted once
// quality is already low.
func compressImage(img image.Image, originalSize, maxSize, minSize int) ([]byte, error) {
	quality := 85
	if originalSize <= maxSize {
		quality = 90
	}

	var compressed []byte
	for quality >= 50 {
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		compressed = buf.Bytes()

		if len(compressed) <= maxSize {
			return compressed, nil
		}
		quality -= 5
	}

	// Still too large: scale towards the middle of the target range.
	bounds := img.Bounds()
	target := (maxSize + minSize) / 2
	ratio := math.Sqrt(float64(target) / float64(len(compressed)))
	width := max(int(float64(bounds.Dx())*ratio), 1)
	height := max(int(float64(bounds.Dy())*ratio), 1)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resizeImage(img, width, height), &jpeg.Options{Quality: 70}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeImage scales src with CatmullRom interpolation.
func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

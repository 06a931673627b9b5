package form

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labdesk/helpdesk/internal/domain"
)

var (
	// ErrNotImage rejects files that are not images by extension or content.
	ErrNotImage = errors.New("only image files can be attached")
	// ErrImageLimit rejects files past the per-ticket attachment cap.
	ErrImageLimit = fmt.Errorf("at most %d images can be attached", domain.MaxImages)
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Rejection reports a file that was not queued.
type Rejection struct {
	Name string
	Err  error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("%s: %v", r.Name, r.Err)
}

// LoadImage reads a local file into an upload, sniffing its content type.
func LoadImage(path string) (domain.ImageUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImageUpload{}, err
	}
	return domain.ImageUpload{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

// IsImage requires both an image extension and image content.
func IsImage(file domain.ImageUpload) bool {
	if !imageExtensions[strings.ToLower(filepath.Ext(file.Name))] {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(file.Data), "image/")
}

// admitImages splits files into those that fit under the cap given used slots
// and the rejected rest.
func admitImages(used int, files []domain.ImageUpload) ([]domain.ImageUpload, []Rejection) {
	var accepted []domain.ImageUpload
	var rejected []Rejection
	for _, file := range files {
		switch {
		case !IsImage(file):
			rejected = append(rejected, Rejection{Name: file.Name, Err: ErrNotImage})
		case used+len(accepted) >= domain.MaxImages:
			rejected = append(rejected, Rejection{Name: file.Name, Err: ErrImageLimit})
		default:
			if file.ContentType == "" {
				file.ContentType = http.DetectContentType(file.Data)
			}
			accepted = append(accepted, file)
		}
	}
	return accepted, rejected
}

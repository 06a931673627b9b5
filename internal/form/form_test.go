package form

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdesk/helpdesk/internal/domain"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func png(name string) domain.ImageUpload {
	return domain.ImageUpload{Name: name, Data: pngHeader}
}

func TestCreateFormDefaults(t *testing.T) {
	f := NewCreateForm()

	assert.Equal(t, domain.TicketPriorityMedium, f.Priority())
	assert.Empty(t, f.Tags())
	assert.Empty(t, f.Images())
}

func TestTitleIsCapped(t *testing.T) {
	f := NewCreateForm()
	f.SetTitle(strings.Repeat("é", 130))

	assert.Equal(t, 100, len([]rune(f.Title())))

	f.SetTitle("short")
	assert.Equal(t, "short", f.Title())
}

func TestToggleTag(t *testing.T) {
	f := NewCreateForm()

	assert.True(t, f.ToggleTag(domain.TagNetwork))
	assert.True(t, f.ToggleTag(domain.TagHardware))
	assert.Equal(t, []domain.Tag{domain.TagHardware, domain.TagNetwork}, f.Tags())

	assert.False(t, f.ToggleTag(domain.TagNetwork))
	assert.Equal(t, []domain.Tag{domain.TagHardware}, f.Tags())
}

func TestCreateFormValidate(t *testing.T) {
	tests := []struct {
		name   string
		build  func(*CreateForm)
		fields []string
	}{
		{
			name: "valid",
			build: func(f *CreateForm) {
				f.SetTitle("Printer jam")
				f.SetDescription("Tray 2 jams on every job")
			},
		},
		{
			name: "blank title and description",
			build: func(f *CreateForm) {
				f.SetTitle("   ")
				f.SetDescription("")
			},
			fields: []string{"title", "description"},
		},
		{
			name: "unknown priority",
			build: func(f *CreateForm) {
				f.SetTitle("Printer jam")
				f.SetDescription("Tray 2")
				f.SetPriority("Urgent")
			},
			fields: []string{"priority"},
		},
		{
			name: "unknown tag",
			build: func(f *CreateForm) {
				f.SetTitle("Printer jam")
				f.SetDescription("Tray 2")
				f.ToggleTag("facilities")
			},
			fields: []string{"tags[0]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewCreateForm()
			tt.build(f)
			err := f.Validate()
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
			details := apperrors.FieldErrors(err)
			for _, field := range tt.fields {
				assert.Contains(t, details, field)
			}
		})
	}
}

func TestCreateFormValidationMessages(t *testing.T) {
	f := NewCreateForm()
	f.SetDescription("something")

	details := apperrors.FieldErrors(f.Validate())
	assert.Equal(t, "title is required", details["title"])
}

func TestAddImagesRejectsNonImages(t *testing.T) {
	f := NewCreateForm()

	rejected := f.AddImages(
		png("screen.png"),
		domain.ImageUpload{Name: "notes.txt", Data: []byte("hello")},
		domain.ImageUpload{Name: "fake.png", Data: []byte("plain text pretending")},
		domain.ImageUpload{Name: "image", Data: pngHeader},
	)

	require.Len(t, rejected, 3)
	for _, r := range rejected {
		assert.ErrorIs(t, r.Err, ErrNotImage)
	}
	require.Len(t, f.Images(), 1)
	assert.Equal(t, "image/png", f.Images()[0].ContentType)
}

func TestAddImagesCap(t *testing.T) {
	f := NewCreateForm()
	var files []domain.ImageUpload
	for i := 0; i < 7; i++ {
		files = append(files, png(string(rune('a'+i))+".png"))
	}

	rejected := f.AddImages(files...)

	assert.Len(t, f.Images(), domain.MaxImages)
	require.Len(t, rejected, 2)
	assert.ErrorIs(t, rejected[0].Err, ErrImageLimit)
	assert.Equal(t, "f.png", rejected[0].Name)

	assert.True(t, f.RemoveImage("a.png"))
	assert.Empty(t, f.AddImages(png("z.png")))
	assert.Len(t, f.Images(), domain.MaxImages)
}

func TestCreateSubmission(t *testing.T) {
	f := NewCreateForm()
	f.SetTitle("  Projector bulb  ")
	f.SetDescription("Room 204 projector is dim")
	f.SetPriority(domain.TicketPriorityHigh)
	f.ToggleTag(domain.TagHardware)
	f.AddImages(png("bulb.png"))

	ticket, files, err := f.Submission(domain.Session{Email: "ana@example.test", Name: "Ana"})
	require.NoError(t, err)

	assert.Equal(t, domain.NewTicket{
		Title:       "Projector bulb",
		Description: "Room 204 projector is dim",
		Priority:    domain.TicketPriorityHigh,
		UserEmail:   "ana@example.test",
		UserName:    "Ana",
		Tags:        []domain.Tag{domain.TagHardware},
	}, ticket)
	require.Len(t, files, 1)
	assert.Equal(t, "bulb.png", files[0].Name)

	f.Reset()
	assert.Empty(t, f.Title())
	assert.Empty(t, f.Images())
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "shot.png", img.Name)
	assert.Equal(t, "image/png", img.ContentType)
	assert.True(t, IsImage(img))

	_, err = LoadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		field    string
		message  string
	}{
		{name: "ok", password: "secret123", confirm: "secret123"},
		{name: "short", password: "abc1", confirm: "abc1", field: "password", message: "Password must be at least 8 characters long"},
		{name: "no digits", password: "abcdefghij", confirm: "abcdefghij", field: "password", message: "Password must contain both letters and numbers"},
		{name: "no letters", password: "1234567890", confirm: "1234567890", field: "password", message: "Password must contain both letters and numbers"},
		{name: "mismatch", password: "secret123", confirm: "secret124", field: "confirm_password", message: "Passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.confirm)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.message, apperrors.FieldErrors(err)[tt.field])
		})
	}
}

// Package media defines the media descriptor exchanged with the media API
// and helpers to classify files by MIME type.
package media

import "time"

// Type is a coarse media category derived from the MIME type.
type Type string

const (
	TypeImage Type = "IMAGE"
	TypePDF   Type = "PDF"
	TypeDocs  Type = "DOCS"
	TypeOther Type = "OTHER"
)

// Status is the server-side lifecycle status of a media record.
// Transitions are server-authoritative: the client only requests a
// transition and accepts whatever status the server returns.
type Status string

const (
	StatusInit     Status = "INIT"
	StatusTemp     Status = "TEMP"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusCanceled Status = "CANCELED"
	StatusDeleted  Status = "DELETED"
)

// Media is the server-side record metadata for one uploaded blob.
// ID is empty until the upload-target request succeeds.
// JSON field names match the media API wire format.
type Media struct {
	ID          string     `json:"id,omitempty"`
	Type        Type       `json:"type,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Name        string     `json:"name,omitempty"`
	Dir         string     `json:"dir,omitempty"`
	Path        string     `json:"path,omitempty"`
	Provider    string     `json:"provider,omitempty"`
	Container   string     `json:"container,omitempty"`
	MimeType    string     `json:"mimeType,omitempty"`
	Size        int64      `json:"size,omitempty"`
	Height      int        `json:"height,omitempty"`
	Width       int        `json:"width,omitempty"`
	Duration    float64    `json:"duration,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Checksum    string     `json:"checksum,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// Merge overlays the non-zero fields of other onto m. Used to fold
// server-returned partial records into a locally tracked descriptor.
func (m *Media) Merge(other *Media) {
	if other == nil {
		return
	}
	if other.ID != "" {
		m.ID = other.ID
	}
	if other.Type != "" {
		m.Type = other.Type
	}
	if other.Status != "" {
		m.Status = other.Status
	}
	if other.Title != "" {
		m.Title = other.Title
	}
	if other.Description != "" {
		m.Description = other.Description
	}
	if other.Name != "" {
		m.Name = other.Name
	}
	if other.Dir != "" {
		m.Dir = other.Dir
	}
	if other.Path != "" {
		m.Path = other.Path
	}
	if other.Provider != "" {
		m.Provider = other.Provider
	}
	if other.Container != "" {
		m.Container = other.Container
	}
	if other.MimeType != "" {
		m.MimeType = other.MimeType
	}
	if other.Size != 0 {
		m.Size = other.Size
	}
	if other.Height != 0 {
		m.Height = other.Height
	}
	if other.Width != 0 {
		m.Width = other.Width
	}
	if other.Duration != 0 {
		m.Duration = other.Duration
	}
	if len(other.Tags) > 0 {
		m.Tags = other.Tags
	}
	if other.Checksum != "" {
		m.Checksum = other.Checksum
	}
	if other.CreatedAt != nil {
		m.CreatedAt = other.CreatedAt
	}
	if other.UpdatedAt != nil {
		m.UpdatedAt = other.UpdatedAt
	}
	if other.DeletedAt != nil {
		m.DeletedAt = other.DeletedAt
	}
}

var imageMimeTypes = map[string]struct{}{
	"image/webp": {},
	"image/gif":  {},
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
}

// Classify maps a declared MIME type to a coarse media category.
// It never fails; unknown types are TypeOther.
func Classify(mimeType string) Type {
	if _, ok := imageMimeTypes[mimeType]; ok {
		return TypeImage
	}
	if mimeType == "application/pdf" {
		return TypePDF
	}
	return TypeOther
}

// Package schedule defines the persisted Schedule record and its store
// contract. Persistence format is named out-of-scope by the core spec;
// what's here exists so the Scheduler and HTTP Router have a concrete
// collaborator to run against rather than an unimplemented interface.
package schedule

import (
	"time"

	"github.com/hassnap/einkscreen/models"
)

// Schedule is one persisted cron-driven capture definition.
type Schedule struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`

	// Cron is a five- or six-field cron expression.
	Cron string `json:"cron"`

	DashboardPath string          `json:"dashboard_path"`
	Viewport      models.Viewport `json:"viewport"`
	Zoom          float64         `json:"zoom,omitempty"`
	Rotate        int             `json:"rotate,omitempty"`
	Invert        bool            `json:"invert,omitempty"`
	Format        models.Format   `json:"format,omitempty"`
	Lang          string          `json:"lang,omitempty"`
	Theme         string          `json:"theme,omitempty"`
	Dark          bool            `json:"dark,omitempty"`

	Crop      *CropConfig      `json:"crop,omitempty"`
	Dithering *DitherConfig    `json:"dithering,omitempty"`

	WebhookURL     string            `json:"webhook_url,omitempty"`
	WebhookHeaders map[string]string `json:"webhook_headers,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CropConfig wraps models.Crop with an enabled flag: a schedule can carry
// crop coordinates while leaving them switched off.
type CropConfig struct {
	Enabled bool `json:"enabled"`
	models.Crop
}

// DitherConfig wraps models.DitherOptions the same way.
type DitherConfig struct {
	Enabled bool `json:"enabled"`
	models.DitherOptions
}

// ToRequest builds the Screenshot Request this schedule would produce,
// applying the Executor's documented defaults for any field a schedule
// leaves at its zero value.
func (s *Schedule) ToRequest() *models.ScreenshotRequest {
	path := s.DashboardPath
	if path == "" {
		path = "/lovelace/0"
	}
	viewport := s.Viewport
	if viewport.Width == 0 || viewport.Height == 0 {
		viewport = models.Viewport{Width: 758, Height: 1024}
	}
	zoom := s.Zoom
	if zoom == 0 {
		zoom = 1
	}
	format := s.Format
	if format == "" {
		format = models.FormatPNG
	}

	req := &models.ScreenshotRequest{
		PagePath: path,
		Viewport: viewport,
		Zoom:     zoom,
		Rotate:   s.Rotate,
		Invert:   s.Invert,
		Format:   format,
		Lang:     s.Lang,
		Theme:    s.Theme,
		Dark:     s.Dark,
	}
	if s.Crop != nil && s.Crop.Enabled {
		c := s.Crop.Crop
		req.Crop = &c
	}
	if s.Dithering != nil && s.Dithering.Enabled {
		d := s.Dithering.DitherOptions
		req.Dithering = &d
	}
	return req
}

// Store is the schedule persistence contract.
type Store interface {
	List() ([]*Schedule, error)
	Get(id string) (*Schedule, error)
	Create(s *Schedule) (*Schedule, error)
	Update(id string, patch *Schedule) (*Schedule, error)
	Delete(id string) (bool, error)
}

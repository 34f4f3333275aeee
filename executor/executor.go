// Package executor runs a single schedule: build parameters, capture
// through the shared Serializer, persist to disk, prune old files, and
// best-effort deliver the image to the schedule's webhook. Grounded on
// spec.md's Schedule Executor command chain; errors at the webhook and
// cleanup boundary are swallowed so a failing run never disables the
// cron timer.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/models"
	"github.com/hassnap/einkscreen/schedule"
	"github.com/hassnap/einkscreen/serializer"
	"github.com/hassnap/einkscreen/webhook"
)

// Serializer is the only entry point into the browser: cron runs funnel
// through the same queue as HTTP requests.
type Serializer interface {
	Execute(ctx context.Context, req *models.ScreenshotRequest) (*serializer.Result, error)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

var imageExtPattern = regexp.MustCompile(`\.(png|jpe?g|bmp)$`)

// Executor runs schedules against a Serializer and persists output under
// a configured directory.
type Executor struct {
	cfg        config.SchedulerConfig
	serializer Serializer
	logger     *slog.Logger
}

// New builds an Executor and ensures its output directory exists.
func New(cfg config.SchedulerConfig, serializer Serializer, logger *slog.Logger) (*Executor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, models.New(models.KindStorageError, "creating output directory", err)
	}
	return &Executor{cfg: cfg, serializer: serializer, logger: logger}, nil
}

// Run executes one schedule regardless of its Enabled flag (the caller
// — cron callback or manual-execute handler — decides whether to call
// Run at all).
func (e *Executor) Run(ctx context.Context, s *schedule.Schedule, enabledCount int) error {
	req := s.ToRequest()
	if err := req.Validate(); err != nil {
		return err
	}

	result, err := e.serializer.Execute(ctx, req)
	if err != nil {
		return err
	}

	path, err := e.save(s.Name, req.Format, result.Bytes)
	if err != nil {
		return err
	}
	e.logger.Info("schedule run captured", "schedule", s.Name, "path", path)

	if err := e.prune(enabledCount); err != nil {
		e.logger.Warn("prune failed", "error", err)
	}

	if s.WebhookURL != "" {
		e.deliverWebhook(ctx, s, string(req.Format), result.Bytes)
	}

	return nil
}

func (e *Executor) save(name string, format models.Format, data []byte) (string, error) {
	sanitized := nonAlphanumeric.ReplaceAllString(name, "_")
	if sanitized == "" {
		sanitized = "schedule"
	}
	timestamp := isoFilenameSafe(time.Now())
	filename := fmt.Sprintf("%s_%s.%s", sanitized, timestamp, extFor(format))
	path := filepath.Join(e.cfg.OutputDir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", models.New(models.KindStorageError, "writing screenshot file", err)
	}
	return path, nil
}

func isoFilenameSafe(t time.Time) string {
	iso := t.UTC().Format(time.RFC3339Nano)
	replacer := strings.NewReplacer(":", "-", ".", "-")
	return replacer.Replace(iso)
}

func extFor(format models.Format) string {
	switch format {
	case models.FormatJPEG:
		return "jpeg"
	case models.FormatBMP:
		return "bmp"
	default:
		return "png"
	}
}

// prune deletes the oldest output files until the remaining count is at
// most enabledCount * RetentionMultiplier.
func (e *Executor) prune(enabledCount int) error {
	entries, err := os.ReadDir(e.cfg.OutputDir)
	if err != nil {
		return models.New(models.KindStorageError, "listing output directory", err)
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo
	for _, entry := range entries {
		if entry.IsDir() || !imageExtPattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: filepath.Join(e.cfg.OutputDir, entry.Name()), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	multiplier := e.cfg.RetentionMultiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	limit := enabledCount * multiplier
	if limit < 0 {
		limit = 0
	}

	excess := len(files) - limit
	for i := 0; i < excess; i++ {
		if err := os.Remove(files[i].path); err != nil {
			e.logger.Warn("prune: failed to remove file", "path", files[i].path, "error", err)
		}
	}
	return nil
}

func (e *Executor) deliverWebhook(ctx context.Context, s *schedule.Schedule, format string, data []byte) {
	_, err := webhook.Deliver(ctx, s.WebhookURL, s.WebhookHeaders, format, data)
	if err != nil {
		e.logger.Warn("webhook delivery failed", "schedule", s.Name, "url", s.WebhookURL, "error", err)
		return
	}
	e.logger.Info("webhook delivered", "schedule", s.Name, "url", s.WebhookURL)
}

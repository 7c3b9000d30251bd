package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/metrics"
	"github.com/huangsam/filepulse/internal/notify"
	"github.com/huangsam/filepulse/schema"
)

// DeliveryJobID is the scheduler id of the recurring email job.
const DeliveryJobID = "send_latest"

// Delivery emails the latest archived report. When folders are configured
// it regenerates the report first.
type Delivery struct {
	settings  contract.SettingsReader
	assembler *Assembler
	archive   contract.ArchiveStore
	notifier  contract.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewDelivery creates the scheduled delivery job. assembler may be nil, in
// which case the job only sends what is already archived.
func NewDelivery(settings contract.SettingsReader, assembler *Assembler, archive contract.ArchiveStore, notifier contract.Notifier, logger *slog.Logger) *Delivery {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &Delivery{
		settings:  settings,
		assembler: assembler,
		archive:   archive,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one delivery. Missing reports or recipients are logged and
// skipped; configuration and transport failures are returned.
func (d *Delivery) Run(ctx context.Context) error {
	d.logger.Info("Scheduled job started", "job", DeliveryJobID)
	s := d.settings.Snapshot()

	if d.assembler != nil && len(s.Folders) > 0 {
		d.regenerate(ctx, s)
	}

	latest, ok, err := d.archive.Latest()
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	if !ok {
		d.logger.Warn("No reports found for scheduled email")
		metrics.EmailsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil
	}

	to := notify.ValidateEmailList(s.Recipients)
	if len(to) == 0 {
		d.logger.Warn("No valid recipients configured")
		metrics.EmailsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil
	}
	if s.APIKey == "" {
		metrics.EmailsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return errors.New("no API key configured")
	}

	now := d.now()
	msg := contract.EmailMessage{
		APIKey:      s.APIKey,
		From:        notify.DefaultFrom,
		To:          to,
		Subject:     notify.ScheduledSubject(now),
		HTML:        notify.ReportEmailHTML(now),
		Attachments: []contract.Attachment{{Path: latest.Path, Filename: latest.Name}},
	}
	if err := d.notifier.Send(ctx, msg); err != nil {
		metrics.EmailsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return err
	}
	metrics.EmailsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	d.logger.Info("Scheduled email sent successfully", "recipients", len(to), "report", latest.Name)
	return nil
}

// regenerate refreshes the archive before sending. Failures fall back to
// the newest report already archived.
func (d *Delivery) regenerate(ctx context.Context, s schema.Settings) {
	_, err := d.assembler.Generate(ctx, GenerateRequest{
		Folders:    s.Folders,
		Thresholds: s.Thresholds,
		OutputDir:  s.OutputDir,
		Trigger:    schema.ScheduledTrigger,
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrGenerationInProgress), errors.Is(err, ErrNoFiles):
		d.logger.Warn("Scheduled regeneration skipped", "reason", err)
	default:
		d.logger.Error("Scheduled regeneration failed", "error", err)
	}
}

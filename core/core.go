// Package core has the folder scan, neglect classification and report
// pipeline of filepulse.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/huangsam/filepulse/core/algo"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/notify"
	"github.com/huangsam/filepulse/schema"
)

// ErrNoFolders is returned when neither the request nor the settings name
// a folder to scan.
var ErrNoFolders = errors.New("no folders selected; pass folders or configure them in settings")

// ServiceDeps carries the collaborators of a Service.
type ServiceDeps struct {
	Settings  contract.SettingsStore
	Archive   contract.ArchiveStore
	Scanner   *Scanner
	Assembler *Assembler
	Notifier  contract.Notifier
	Location  *time.Location // zone of the schedule
	Precision int
	Logger    *slog.Logger
}

// Service is the entry point shared by the CLI, the HTTP API and the MCP
// server. It resolves defaults from the settings and keeps the scheduled
// delivery job in step with them.
type Service struct {
	settings  contract.SettingsStore
	archive   contract.ArchiveStore
	scanner   *Scanner
	assembler *Assembler
	notifier  contract.Notifier
	delivery  *Delivery
	loc       *time.Location
	precision int
	logger    *slog.Logger

	schedMu   sync.Mutex
	scheduler contract.JobScheduler

	gen generationTracker
}

// NewService wires a Service from its collaborators.
func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	precision := deps.Precision
	if precision < 1 {
		precision = contract.DefaultPrecision
	}
	return &Service{
		settings:  deps.Settings,
		archive:   deps.Archive,
		scanner:   deps.Scanner,
		assembler: deps.Assembler,
		notifier:  deps.Notifier,
		delivery:  NewDelivery(deps.Settings, deps.Assembler, deps.Archive, deps.Notifier, logger),
		loc:       loc,
		precision: precision,
		logger:    logger,
		gen:       generationTracker{status: schema.GenerationStatus{State: schema.GenerationIdle}},
	}
}

// Settings returns the settings store.
func (s *Service) Settings() contract.SettingsStore { return s.settings }

// Archive returns the report archive.
func (s *Service) Archive() contract.ArchiveStore { return s.archive }

// Delivery returns the scheduled delivery job.
func (s *Service) Delivery() *Delivery { return s.delivery }

// folders returns the requested folders, falling back to the settings.
func (s *Service) folders(requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	if configured := s.settings.Snapshot().Folders; len(configured) > 0 {
		return configured, nil
	}
	return nil, ErrNoFolders
}

// Preview scans folders and classifies the files without rendering a
// report. Rows keep scan order.
func (s *Service) Preview(folders []string, progress ProgressFunc) ([]schema.ReportRow, error) {
	roots, err := s.folders(folders)
	if err != nil {
		return nil, err
	}
	records := s.scanner.Scan(roots, progress)
	if len(records) == 0 {
		return nil, ErrNoFiles
	}
	return BuildRows(records, s.settings.Snapshot().Thresholds, time.Now(), s.precision), nil
}

// Generate runs the report pipeline in the foreground. Empty request
// fields are filled from the settings.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := s.fillRequest(&req); err != nil {
		return nil, err
	}
	return s.assembler.Generate(ctx, req)
}

func (s *Service) fillRequest(req *GenerateRequest) error {
	roots, err := s.folders(req.Folders)
	if err != nil {
		return err
	}
	req.Folders = roots
	snap := s.settings.Snapshot()
	if req.Thresholds == (schema.ThresholdSet{}) {
		req.Thresholds = snap.Thresholds
	}
	if req.OutputDir == "" {
		req.OutputDir = snap.OutputDir
	}
	return nil
}

// Classify returns the band of a neglect age under the current thresholds.
func (s *Service) Classify(ageDays float64) schema.Classification {
	if ageDays < 0 {
		ageDays = 0
	}
	thresholds := s.settings.Snapshot().Thresholds
	band := algo.BandForDays(ageDays, thresholds)
	return schema.Classification{
		AgeDays:    ageDays,
		Band:       band,
		State:      band.Title(),
		Neglect:    algo.FormatNeglect(ageDays),
		Thresholds: thresholds,
	}
}

// AttachScheduler registers the delivery job for the current settings and
// re-registers it after every settings change.
func (s *Service) AttachScheduler(sched contract.JobScheduler) {
	s.schedMu.Lock()
	s.scheduler = sched
	s.schedMu.Unlock()

	s.SyncSchedule(s.settings.Snapshot())
	s.settings.Subscribe(func(cfg schema.Settings) { s.SyncSchedule(cfg) })
}

// SyncSchedule registers or removes the delivery job so it matches cfg. It
// reports whether a job is registered afterwards.
func (s *Service) SyncSchedule(cfg schema.Settings) bool {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	if s.scheduler == nil {
		return false
	}

	spec := cfg.Schedule
	if !spec.Active() {
		if s.scheduler.RemoveJob(DeliveryJobID) {
			s.logger.Info("Scheduled delivery removed")
		}
		return false
	}
	ok := s.scheduler.ScheduleJob(DeliveryJobID, s.delivery.Run, *spec.Date, *spec.Time, *spec.Frequency)
	if ok {
		next, _ := s.scheduler.NextFireTime(DeliveryJobID)
		s.logger.Info("Scheduled delivery registered",
			"frequency", *spec.Frequency, "time", *spec.Time, "start", *spec.Date, "next", next)
	}
	return ok
}

// ScheduleStatus describes the persisted schedule and the registered jobs.
func (s *Service) ScheduleStatus() schema.ScheduleStatus {
	s.schedMu.Lock()
	sched := s.scheduler
	s.schedMu.Unlock()

	var jobs []schema.JobInfo
	if sched != nil {
		jobs = sched.Jobs()
	}
	return schema.NewScheduleStatus(s.settings.Snapshot().Schedule, s.loc.String(), jobs)
}

// SendTest emails a configuration test message. An empty to uses the
// configured recipients.
func (s *Service) SendTest(ctx context.Context, to string) error {
	cfg := s.settings.Snapshot()
	if to == "" {
		to = cfg.Recipients
	}
	if bad := notify.InvalidEmails(to); len(bad) > 0 {
		return &notify.EmailError{Msg: fmt.Sprintf("invalid email addresses: %v", bad)}
	}
	return s.notifier.Send(ctx, contract.EmailMessage{
		APIKey:  cfg.APIKey,
		From:    notify.DefaultFrom,
		To:      notify.ValidateEmailList(to),
		Subject: notify.TestSubject,
		HTML:    notify.TestEmailHTML(),
	})
}

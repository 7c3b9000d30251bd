package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/notify"
	"github.com/huangsam/filepulse/internal/scheduler"
	"github.com/huangsam/filepulse/internal/settings"
	"github.com/huangsam/filepulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	*assemblerFixture
	service  *Service
	settings *settings.Store
	notifier *notify.MockNotifier
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	af := newAssemblerFixture(t)
	store := settings.Load(filepath.Join(t.TempDir(), "config.json"), nil)
	notifier := &notify.MockNotifier{}
	svc := NewService(ServiceDeps{
		Settings:  store,
		Archive:   af.archive,
		Scanner:   NewScanner(nil, nil, nil),
		Assembler: af.assembler,
		Notifier:  notifier,
		Location:  time.UTC,
	})
	return &serviceFixture{assemblerFixture: af, service: svc, settings: store, notifier: notifier}
}

func TestServicePreview(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Preview(nil, nil)
	assert.ErrorIs(t, err, ErrNoFolders)

	rows, err := f.service.Preview([]string{f.folder}, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, f.settings.SetFolders([]string{f.folder}))
	rows, err = f.service.Preview(nil, nil)
	require.NoError(t, err, "configured folders are used when none are passed")
	assert.Len(t, rows, 2)

	_, err = f.service.Preview([]string{t.TempDir()}, nil)
	assert.ErrorIs(t, err, ErrNoFiles)
	assert.Zero(t, f.renderer.calls, "previews never render")
}

func TestServiceGenerateUsesSettings(t *testing.T) {
	f := newServiceFixture(t)
	require.NoError(t, f.settings.SetFolders([]string{f.folder}))
	require.NoError(t, f.settings.SetOutputDir(f.outDir))
	custom := schema.ThresholdSet{Red: schema.Range{Start: 30, End: 60}, Amber: schema.Range{Start: 10, End: 29}, Green: schema.Range{Start: 0, End: 9}}
	require.NoError(t, f.settings.SetThresholds(custom))

	res, err := f.service.Generate(context.Background(), GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, f.outDir, filepath.Dir(res.ReportPath))
	assert.Equal(t, 1, res.Counts[schema.AmberBand], "the 18 day old file is amber under the custom ranges")
	assert.Equal(t, 1, res.Counts[schema.GreenBand])
}

func TestServiceClassify(t *testing.T) {
	f := newServiceFixture(t)

	tests := []struct {
		days    float64
		band    schema.Band
		neglect string
	}{
		{16.2, schema.RedBand, "16 days 04 h"},
		{3.99, schema.GreenBand, "3 days 23 h"},
		{-2, schema.GreenBand, "0 days 00 h"},
		{21, schema.NoneBand, "21 days 00 h"},
	}
	for _, tt := range tests {
		c := f.service.Classify(tt.days)
		assert.Equal(t, tt.band, c.Band, "days %v", tt.days)
		assert.Equal(t, tt.neglect, c.Neglect, "days %v", tt.days)
		assert.Equal(t, tt.band.Title(), c.State)
	}
}

func TestServiceStartGeneration(t *testing.T) {
	f := newServiceFixture(t)
	f.renderer.block = make(chan struct{})
	f.renderer.started = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	status, err := f.service.StartGeneration(ctx, GenerateRequest{Folders: []string{f.folder}, OutputDir: f.outDir})
	require.NoError(t, err)
	cancel() // the generation outlives the request context
	assert.Equal(t, schema.GenerationRunning, status.State)
	assert.Equal(t, schema.APITrigger, status.Trigger)
	assert.NotEmpty(t, status.JobID)

	<-f.renderer.started
	_, err = f.service.StartGeneration(context.Background(), GenerateRequest{Folders: []string{f.folder}})
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	running := f.service.GenerationStatus()
	assert.Equal(t, schema.Progress{Done: 2, Total: 2}, running.Progress)

	close(f.renderer.block)
	f.service.WaitGenerations()

	done := f.service.GenerationStatus()
	assert.Equal(t, status.JobID, done.JobID)
	assert.Equal(t, schema.GenerationDone, done.State)
	assert.FileExists(t, done.ArchivedPath)
	assert.Equal(t, 1, done.Counts[schema.RedBand])
	require.NotNil(t, done.FinishedAt)
	assert.Empty(t, done.Error)
}

func TestServiceStartGenerationOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *serviceFixture) []string
		state string
	}{
		{"empty folder", func(f *serviceFixture) []string { return []string{f.outDir} }, schema.GenerationEmpty},
		{"render failure", func(f *serviceFixture) []string { f.renderer.fail = true; return []string{f.folder} }, schema.GenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			require.NoError(t, os.MkdirAll(f.outDir, 0o755))
			folders := tt.setup(f)

			_, err := f.service.StartGeneration(context.Background(), GenerateRequest{Folders: folders, OutputDir: t.TempDir()})
			require.NoError(t, err)
			f.service.WaitGenerations()

			status := f.service.GenerationStatus()
			assert.Equal(t, tt.state, status.State)
			assert.NotEmpty(t, status.Error)
		})
	}
}

func TestServiceStartGenerationNoFolders(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.StartGeneration(context.Background(), GenerateRequest{})
	assert.ErrorIs(t, err, ErrNoFolders)
	assert.Equal(t, schema.GenerationIdle, f.service.GenerationStatus().State)
}

func TestServiceScheduleSync(t *testing.T) {
	f := newServiceFixture(t)
	sched := scheduler.Start(time.UTC, nil)
	defer sched.Shutdown(false)

	assert.False(t, f.service.SyncSchedule(f.settings.Snapshot()), "no scheduler attached yet")
	f.service.AttachScheduler(sched)
	assert.Empty(t, sched.Jobs())

	require.NoError(t, f.settings.SetRecipients("ops@example.com"))
	require.NoError(t, f.settings.SetAPIKey("re_123456789"))
	freq := schema.Weekly
	require.NoError(t, f.settings.SetSchedule(schema.ScheduleSpec{
		Date: schema.StrPtr("2024-06-03"), Time: schema.StrPtr("09:15"), Frequency: &freq,
	}))

	jobs := sched.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, DeliveryJobID, jobs[0].ID)
	assert.Equal(t, time.Monday, jobs[0].NextFire.In(time.UTC).Weekday())

	status := f.service.ScheduleStatus()
	assert.True(t, status.Active)
	assert.Equal(t, "UTC", status.Timezone)
	assert.Len(t, status.Jobs, 1)

	require.NoError(t, f.settings.ClearSchedule())
	assert.Empty(t, sched.Jobs(), "clearing the schedule removes the job")
	assert.False(t, f.service.ScheduleStatus().Active)
}

func TestServiceSendTest(t *testing.T) {
	f := newServiceFixture(t)
	require.NoError(t, f.settings.SetAPIKey("re_123456789"))
	require.NoError(t, f.settings.SetRecipients("ops@example.com"))

	f.notifier.On("Send", mock.Anything, mock.MatchedBy(func(msg contract.EmailMessage) bool {
		return msg.Subject == notify.TestSubject && len(msg.To) == 1 && msg.To[0] == "ops@example.com" && len(msg.Attachments) == 0
	})).Return(nil).Once()
	require.NoError(t, f.service.SendTest(context.Background(), ""))
	f.notifier.AssertExpectations(t)

	err := f.service.SendTest(context.Background(), "ops@example.com, broken")
	var emailErr *notify.EmailError
	require.True(t, errors.As(err, &emailErr))
	assert.Contains(t, emailErr.Error(), "broken")
}

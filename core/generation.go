package core

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/filepulse/schema"
)

// generationTracker holds the status of the latest background generation.
type generationTracker struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	status schema.GenerationStatus
}

func (g *generationTracker) snapshot() schema.GenerationStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.status
	if g.status.Counts != nil {
		out.Counts = maps.Clone(g.status.Counts)
	}
	return out
}

func (g *generationTracker) progress(done, total int) {
	g.mu.Lock()
	g.status.Progress = schema.Progress{Done: done, Total: total}
	g.mu.Unlock()
}

// StartGeneration runs the report pipeline on a background goroutine and
// returns its initial status at once. It fails with ErrGenerationInProgress
// while another generation is running. The generation outlives ctx
// cancellation so an HTTP request can return before the report is done.
func (s *Service) StartGeneration(ctx context.Context, req GenerateRequest) (schema.GenerationStatus, error) {
	if err := s.fillRequest(&req); err != nil {
		return schema.GenerationStatus{}, err
	}
	if req.Trigger == "" {
		req.Trigger = schema.APITrigger
	}

	g := &s.gen
	g.mu.Lock()
	if g.status.State == schema.GenerationRunning || s.assembler.Busy() {
		g.mu.Unlock()
		return schema.GenerationStatus{}, ErrGenerationInProgress
	}
	started := time.Now().UTC()
	g.status = schema.GenerationStatus{
		JobID:     uuid.NewString(),
		State:     schema.GenerationRunning,
		Trigger:   req.Trigger,
		StartedAt: &started,
	}
	initial := g.status
	g.wg.Add(1)
	g.mu.Unlock()

	req.Progress = g.progress
	bg := context.WithoutCancel(ctx)
	go func() {
		defer g.wg.Done()
		res, err := s.assembler.Generate(bg, req)
		s.finishGeneration(initial.JobID, res, err)
	}()
	return initial, nil
}

func (s *Service) finishGeneration(jobID string, res *GenerateResult, err error) {
	g := &s.gen
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status.JobID != jobID {
		return
	}
	finished := time.Now().UTC()
	g.status.FinishedAt = &finished
	switch {
	case err == nil:
		g.status.State = schema.GenerationDone
		g.status.ReportPath = res.ReportPath
		g.status.ArchivedPath = res.ArchivedPath
		g.status.Counts = res.Counts
	case errors.Is(err, ErrNoFiles):
		g.status.State = schema.GenerationEmpty
		g.status.Error = err.Error()
	default:
		g.status.State = schema.GenerationFailed
		g.status.Error = err.Error()
		s.logger.Error("Background generation failed", "job", jobID, "error", err)
	}
}

// GenerationStatus returns a snapshot of the latest background generation.
func (s *Service) GenerationStatus() schema.GenerationStatus {
	return s.gen.snapshot()
}

// WaitGenerations blocks until every background generation has finished.
func (s *Service) WaitGenerations() {
	s.gen.wg.Wait()
}

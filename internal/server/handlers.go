package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huangsam/filepulse/core"
	"github.com/huangsam/filepulse/internal/archive"
	"github.com/huangsam/filepulse/internal/settings"
	"github.com/huangsam/filepulse/schema"
)

// generateBody is the optional body of POST /api/reports.
type generateBody struct {
	Folders   []string `json:"folders"`
	OutputDir string   `json:"output_dir"`
}

// handler serves the JSON API on top of a core.Service.
type handler struct {
	svc *core.Service
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listReports(w http.ResponseWriter, _ *http.Request) {
	entries, err := h.svc.Archive().List()
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, schema.EnrichArchive(entries))
}

func (h *handler) startGeneration(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	if err := decodeBody(r, &body); err != nil {
		validationError(w, "invalid request body: "+err.Error())
		return
	}

	status, err := h.svc.StartGeneration(r.Context(), core.GenerateRequest{
		Folders:   body.Folders,
		OutputDir: body.OutputDir,
		Trigger:   schema.APITrigger,
	})
	switch {
	case errors.Is(err, core.ErrNoFolders):
		validationError(w, err.Error())
	case errors.Is(err, core.ErrGenerationInProgress):
		conflict(w, err.Error())
	case err != nil:
		internalError(w, err.Error())
	default:
		w.Header().Set("Location", "/api/generation")
		writeJSON(w, http.StatusAccepted, status)
	}
}

func (h *handler) deleteReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := h.svc.Archive().Delete(name)
	switch {
	case errors.Is(err, archive.ErrInvalidName), errors.Is(err, archive.ErrOutsideArchive):
		validationError(w, err.Error())
	case err != nil:
		internalError(w, err.Error())
	case !removed:
		notFound(w, "report "+name+" is not in the archive")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handler) generation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GenerationStatus())
}

func (h *handler) getThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings().Snapshot().Thresholds)
}

func (h *handler) putThresholds(w http.ResponseWriter, r *http.Request) {
	var t schema.ThresholdSet
	if err := decodeBody(r, &t); err != nil {
		validationError(w, "invalid request body: "+err.Error())
		return
	}
	err := h.svc.Settings().SetThresholds(t)
	switch {
	case errors.Is(err, settings.ErrInvalidThresholds):
		validationError(w, err.Error())
	case err != nil:
		internalError(w, err.Error())
	default:
		writeJSON(w, http.StatusOK, t)
	}
}

func (h *handler) schedule(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ScheduleStatus())
}

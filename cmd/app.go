package cmd

import (
	"github.com/huangsam/filepulse/core"
	"github.com/huangsam/filepulse/internal/archive"
	"github.com/huangsam/filepulse/internal/history"
	"github.com/huangsam/filepulse/internal/notify"
	"github.com/huangsam/filepulse/internal/render"
	"github.com/huangsam/filepulse/internal/settings"
)

// newService wires the report pipeline from the validated configuration.
func newService() *core.Service {
	store := settings.Load(cfg.SettingsPath, logger)
	arch := archive.NewStore(cfg.ArchiveDir, logger)
	scanner := core.NewScanner(core.NewOwnerLookup(), cfg.Excludes, logger)
	assembler := core.NewAssembler(scanner, render.NewPDFRenderer(logger), arch, history.Manager, cfg.Precision, logger)
	return core.NewService(core.ServiceDeps{
		Settings:  store,
		Archive:   arch,
		Scanner:   scanner,
		Assembler: assembler,
		Notifier:  notify.NewResendNotifier(logger),
		Location:  cfg.Timezone,
		Precision: cfg.Precision,
		Logger:    logger,
	})
}

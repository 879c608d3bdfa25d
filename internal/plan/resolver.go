package plan

import (
	"path/filepath"

	"github.com/CliDyn/tapearc/internal/config"
	"github.com/CliDyn/tapearc/internal/model"
)

// Resolve maps the configuration to the ordered sequence of work units for
// the given run mode.
//
// With a non-empty unit list, one WorkUnit is produced per name, in the
// configured order (order matters: it is both presentation and processing
// order, never sorted). Each unit's paths are the respective base joined
// with the unit name.
//
// With an empty unit list, exactly one WorkUnit covers the entire base
// tree. Its name is the final path segment of the base source directory
// (archive) or of the archive root (retrieve), and its source and remote
// paths are the bases themselves. Only the staging path gains the unit name
// as a suffix, so repeated whole-tree runs of different trees do not share
// a staging directory.
//
// Resolve performs no I/O: nonexistent directories still resolve to units,
// and existence is the validator's and dispatcher's concern.
func Resolve(cfg config.Config, mode model.RunMode) []model.WorkUnit {
	sourceBase, remoteBase := bases(cfg, mode)

	if len(cfg.Units) == 0 {
		name := filepath.Base(sourceBase)
		return []model.WorkUnit{{
			Name:        name,
			SourcePath:  sourceBase,
			StagingPath: filepath.Join(cfg.BaseStaging, name),
			RemotePath:  remoteBase,
		}}
	}

	units := make([]model.WorkUnit, 0, len(cfg.Units))
	for _, name := range cfg.Units {
		units = append(units, model.WorkUnit{
			Name:        name,
			SourcePath:  filepath.Join(sourceBase, name),
			StagingPath: filepath.Join(cfg.BaseStaging, name),
			RemotePath:  filepath.Join(remoteBase, name),
		})
	}
	return units
}

// bases selects the source and remote base directories for the mode.
// Archive reads from the work filesystem and writes to the tape archive;
// retrieve originates from the tape archive and restores into RestoreDest.
func bases(cfg config.Config, mode model.RunMode) (sourceBase, remoteBase string) {
	if mode == model.ModeRetrieve {
		return cfg.BaseArchive, cfg.RestoreDest
	}
	return cfg.BaseSource, cfg.BaseArchive
}

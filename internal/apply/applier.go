package apply

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"settings-converter/internal/ini"
	"settings-converter/internal/logger"
	"settings-converter/internal/profile"
	"settings-converter/internal/report"
	"settings-converter/internal/scerrors"
)

// Applier switches governed files to a profile and clears the cache files
// the game client regenerates on launch.
type Applier struct {
	Rules *profile.Table
	Roots []string

	// Report receives the per-file tables and cache deletion notices.
	Report io.Writer
	// Transcript, when set, receives the same output without highlighting.
	Transcript io.Writer
	Highlight  *report.Highlighter

	Strict bool
	Log    *logger.LogEntry
}

// FileFailure records why one governed file could not be converted.
type FileFailure struct {
	Path string
	Err  error
}

// Result summarizes a run.
type Result struct {
	Processed     []string
	Skipped       []string
	ChangedFields int
	DeletedCaches []string
	Failures      []FileFailure
}

// Run converts every governed file to target, one at a time in declaration
// order. A failing file never stops the remaining ones; all failures are
// joined into the returned error.
func (a *Applier) Run(target profile.ID) (Result, error) {
	var res Result
	log := a.log().WithField("target", target)

	for _, tg := range a.Rules.Targets(a.Roots) {
		changed, err := a.convert(tg, target)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.WithField("path", tg.Path).Debug("governed file missing, skipping")
			res.Skipped = append(res.Skipped, tg.Path)
		case err != nil:
			log.WithField("path", tg.Path).WithField("kind", scerrors.KindOf(err)).Errorf("convert failed: %v", err)
			res.Failures = append(res.Failures, FileFailure{Path: tg.Path, Err: err})
		default:
			res.Processed = append(res.Processed, tg.Path)
			res.ChangedFields += changed
		}
	}

	res.DeletedCaches = a.clearCaches(a.Rules.CacheTargets(a.Roots))
	a.emit("\n", "\n")

	errs := make([]error, 0, len(res.Failures))
	for _, f := range res.Failures {
		errs = append(errs, f.Err)
	}
	return res, errors.Join(errs...)
}

func (a *Applier) convert(tg profile.Target, target profile.ID) (int, error) {
	var opts []ini.Option
	if a.Strict {
		opts = append(opts, ini.Strict())
	}
	doc, err := ini.Load(tg.Path, opts...)
	if err != nil {
		return 0, err
	}

	rows := make([]report.Row, 0, len(tg.Rules))
	changed := 0
	for _, rule := range tg.Rules {
		row := report.Row{Field: rule.Label(), Existing: report.DoesNotExist, Desired: report.DoesNotExist}
		if existing, ok := doc.Get(rule.Section, rule.Field); ok {
			row.Existing = existing
			row.Desired = rule.Value(target)
			doc.Set(rule.Section, rule.Field, row.Desired)
			if row.Changed() {
				changed++
			}
		}
		rows = append(rows, row)
	}

	a.emit(
		report.FileTable(tg.Path, rows, a.Highlight).Render(),
		report.FileTable(tg.Path, rows, report.Plain()).Render(),
	)

	if err := saveDocument(doc, tg.Path); err != nil {
		return 0, err
	}
	a.log().WithField("path", tg.Path).WithField("changed", changed).Info("saved governed file")
	return changed, nil
}

// clearCaches removes each cache file. Missing files are expected; other
// failures are logged and otherwise ignored. Only deletions are reported.
func (a *Applier) clearCaches(paths []string) []string {
	var deleted []string
	for _, p := range paths {
		if err := removeFile(p); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				a.log().WithField("path", p).Warnf("could not delete cache file: %v", err)
			}
			continue
		}
		deleted = append(deleted, p)
		msg := fmt.Sprintf("Deleted settings file (so that changes take effect): %s\n", p)
		a.emit(msg, msg)
	}
	return deleted
}

func (a *Applier) emit(colored, plain string) {
	if a.Report != nil {
		if _, err := io.WriteString(a.Report, colored); err != nil {
			a.log().Warnf("write report: %v", err)
		}
	}
	if a.Transcript != nil {
		_, _ = io.WriteString(a.Transcript, plain)
	}
}

func (a *Applier) log() *logger.LogEntry {
	if a.Log != nil {
		return a.Log
	}
	return logger.Named("apply")
}

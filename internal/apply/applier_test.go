package apply

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"settings-converter/internal/ini"
	"settings-converter/internal/logger"
	"settings-converter/internal/profile"
	"settings-converter/internal/report"
	"settings-converter/internal/scerrors"
)

const (
	inputIni = "[GameEvents]\n" +
		"evtPlayerAttackMoveClick=[Button 1]\n" +
		"evtPlayerAttackMove=[Button 1],[<Unbound>]\n" +
		"evtCameraSnap = [Space]\n" +
		"\n" +
		"[Quickbinds]\n" +
		"evtCastSpell1smart=1\n"
	gameCfg = "[General]\n" +
		"WindowMode=0\n" +
		"Width = 1920\n"
)

type install struct {
	root   string
	input  string
	game   string
	cache  string
	report *bytes.Buffer
}

func newInstall(t *testing.T) *install {
	t.Helper()
	root := t.TempDir()
	cfgDir := filepath.Join(root, "Config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	in := &install{
		root:   root,
		input:  filepath.Join(cfgDir, "Input.ini"),
		game:   filepath.Join(cfgDir, "game.cfg"),
		cache:  filepath.Join(cfgDir, "PersistedSettings.json"),
		report: &bytes.Buffer{},
	}
	writeFile(t, in.input, inputIni)
	writeFile(t, in.game, gameCfg)
	writeFile(t, in.cache, "{}")
	return in
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

// assertRow finds the body row for field and compares its trimmed cells.
func assertRow(t *testing.T, out, field, existing, desired string) {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		cells := strings.Split(strings.Trim(line, "|"), "|")
		if len(cells) != 3 || strings.TrimSpace(cells[0]) != field {
			continue
		}
		if got := strings.TrimSpace(cells[1]); got != existing {
			t.Fatalf("%s existing = %q, want %q", field, got, existing)
		}
		if got := strings.TrimSpace(cells[2]); got != desired {
			t.Fatalf("%s desired = %q, want %q", field, got, desired)
		}
		return
	}
	t.Fatalf("report has no row for %s:\n%s", field, out)
}

func quietLog() *logger.LogEntry {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	return logrus.NewEntry(l)
}

func (in *install) applier(roots ...string) *Applier {
	if len(roots) == 0 {
		roots = []string{in.root}
	}
	return &Applier{
		Rules:  profile.Default(),
		Roots:  roots,
		Report: in.report,
		Log:    quietLog(),
	}
}

func TestRunConvergesToEachProfile(t *testing.T) {
	for _, target := range []profile.ID{profile.TFT, profile.League} {
		t.Run(string(target), func(t *testing.T) {
			in := newInstall(t)
			if _, err := in.applier().Run(target); err != nil {
				t.Fatalf("Run: %v", err)
			}
			for _, tg := range profile.Default().Targets([]string{in.root}) {
				doc, err := ini.Load(tg.Path)
				if err != nil {
					t.Fatalf("Load %s: %v", tg.Path, err)
				}
				for _, rule := range tg.Rules {
					got, ok := doc.Get(rule.Section, rule.Field)
					if !ok || got != rule.Value(target) {
						t.Fatalf("%s %s = (%q, %v), want %q", tg.Path, rule.Label(), got, ok, rule.Value(target))
					}
				}
			}
		})
	}
}

func TestRunTFTScenario(t *testing.T) {
	in := newInstall(t)
	res, err := in.applier().Run(profile.TFT)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantInput := "[GameEvents]\n" +
		"evtPlayerAttackMoveClick=[<Unbound>]\n" +
		"evtPlayerAttackMove=[<Unbound>],[<Unbound>]\n" +
		"evtCameraSnap = [Space]\n" +
		"\n" +
		"[Quickbinds]\n" +
		"evtCastSpell1smart=1\n"
	if got := readFile(t, in.input); got != wantInput {
		t.Fatalf("Input.ini = %q, want %q", got, wantInput)
	}
	if got, want := readFile(t, in.game), "[General]\nWindowMode=2\nWidth = 1920\n"; got != want {
		t.Fatalf("game.cfg = %q, want %q", got, want)
	}
	if res.ChangedFields != 3 || len(res.Processed) != 2 {
		t.Fatalf("Result = %+v", res)
	}

	out := in.report.String()
	assertRow(t, out, "GameEvents.evtPlayerAttackMoveClick", "[Button 1]", "[<Unbound>]")
	if want := "Deleted settings file (so that changes take effect): " + in.cache + "\n"; !strings.Contains(out, want) {
		t.Fatalf("report missing %q:\n%s", want, out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Fatalf("report should end with a blank line: %q", out)
	}
	if _, err := os.Stat(in.cache); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("cache file still present: %v", err)
	}
}

func TestRunLeagueKeepsUnchangedValue(t *testing.T) {
	in := newInstall(t)
	res, err := in.applier().Run(profile.League)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readFile(t, in.game); got != gameCfg {
		t.Fatalf("game.cfg = %q, want unchanged %q", got, gameCfg)
	}
	if got := readFile(t, in.input); got != inputIni {
		t.Fatalf("Input.ini = %q, want unchanged", got)
	}
	if res.ChangedFields != 0 {
		t.Fatalf("ChangedFields = %d, want 0", res.ChangedFields)
	}
	assertRow(t, in.report.String(), "General.WindowMode", "0", "0")
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	in := newInstall(t)
	if _, err := in.applier().Run(profile.TFT); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	input, game := readFile(t, in.input), readFile(t, in.game)

	in.report.Reset()
	res, err := in.applier().Run(profile.TFT)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.ChangedFields != 0 {
		t.Fatalf("second run changed %d fields", res.ChangedFields)
	}
	if readFile(t, in.input) != input || readFile(t, in.game) != game {
		t.Fatal("second run modified files")
	}
	if len(res.DeletedCaches) != 0 || strings.Contains(in.report.String(), "Deleted settings file") {
		t.Fatalf("second run reported a deletion: %+v", res.DeletedCaches)
	}
}

func TestRunMissingFieldIsReportedNotInserted(t *testing.T) {
	in := newInstall(t)
	writeFile(t, in.input, "[GameEvents]\nevtPlayerAttackMoveClick=[Button 1]\n")

	if _, err := in.applier().Run(profile.TFT); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := readFile(t, in.input), "[GameEvents]\nevtPlayerAttackMoveClick=[<Unbound>]\n"; got != want {
		t.Fatalf("Input.ini = %q, want %q", got, want)
	}
	assertRow(t, in.report.String(), "GameEvents.evtPlayerAttackMove", report.DoesNotExist, report.DoesNotExist)
}

func TestRunSkipsMissingFilesAndRoots(t *testing.T) {
	in := newInstall(t)
	if err := os.Remove(in.input); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	pbe := filepath.Join(t.TempDir(), "League of Legends (PBE)")

	res, err := in.applier(in.root, pbe).Run(profile.TFT)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Skipped) != 3 {
		t.Fatalf("Skipped = %v, want 3 entries", res.Skipped)
	}
	if len(res.Processed) != 1 || res.Processed[0] != in.game {
		t.Fatalf("Processed = %v, want [%s]", res.Processed, in.game)
	}
	if got := readFile(t, in.game); !strings.Contains(got, "WindowMode=2") {
		t.Fatalf("game.cfg = %q", got)
	}
}

func TestRunWriteFailureDoesNotStopOtherFiles(t *testing.T) {
	in := newInstall(t)
	orig := saveDocument
	t.Cleanup(func() { saveDocument = orig })
	saveDocument = func(doc *ini.Document, path string) error {
		if path == in.input {
			return scerrors.New(scerrors.KindWrite, errors.New("disk full"))
		}
		return orig(doc, path)
	}

	res, err := in.applier().Run(profile.TFT)
	if err == nil || !scerrors.Is(err, scerrors.KindWrite) {
		t.Fatalf("Run error = %v, want write failure", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].Path != in.input {
		t.Fatalf("Failures = %+v", res.Failures)
	}
	if got := readFile(t, in.input); got != inputIni {
		t.Fatalf("Input.ini changed despite failed save: %q", got)
	}
	if got := readFile(t, in.game); !strings.Contains(got, "WindowMode=2") {
		t.Fatalf("game.cfg = %q, want converted", got)
	}
	if len(res.DeletedCaches) != 1 {
		t.Fatalf("DeletedCaches = %v", res.DeletedCaches)
	}
}

func TestRunStrictParseFailure(t *testing.T) {
	in := newInstall(t)
	writeFile(t, in.input, "[GameEvents]\nnot a field\n")
	a := in.applier()
	a.Strict = true

	res, err := a.Run(profile.TFT)
	var perr *ini.ParseError
	if !errors.As(err, &perr) || perr.Line != 2 {
		t.Fatalf("Run error = %v, want ParseError on line 2", err)
	}
	if len(res.Processed) != 1 {
		t.Fatalf("Processed = %v", res.Processed)
	}
}

func TestClearCachesIgnoresRemoveErrors(t *testing.T) {
	in := newInstall(t)
	orig := removeFile
	t.Cleanup(func() { removeFile = orig })
	removeFile = func(string) error { return os.ErrPermission }

	res, err := in.applier().Run(profile.TFT)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.DeletedCaches) != 0 || strings.Contains(in.report.String(), "Deleted settings file") {
		t.Fatalf("reported deletion despite failure: %+v", res.DeletedCaches)
	}
}

func TestTranscriptIsPlain(t *testing.T) {
	in := newInstall(t)
	var transcript bytes.Buffer
	a := in.applier()
	a.Highlight = report.NewHighlighter(in.report, report.ColorAlways)
	a.Transcript = &transcript

	if _, err := a.Run(profile.TFT); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(in.report.String(), "\x1b[") {
		t.Fatal("report has no highlighting")
	}
	if strings.Contains(transcript.String(), "\x1b[") {
		t.Fatal("transcript contains escape sequences")
	}
	if !strings.Contains(transcript.String(), "[<Unbound>]") {
		t.Fatalf("transcript = %q", transcript.String())
	}
}

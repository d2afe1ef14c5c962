// Package pipeline is the driver that sequences every stage of a run:
// read configuration, discover mod packages, expand and allocate, resolve
// references, fix up localization, and write the packed and relational
// outputs. Grounded directly in original_source/src/main.rs's top-level
// function, stage by stage.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zaop/modforge/internal/alloc"
	"github.com/zaop/modforge/internal/errs"
	"github.com/zaop/modforge/internal/locale"
	mod "github.com/zaop/modforge/internal/mod"
	"github.com/zaop/modforge/internal/packeddb"
	"github.com/zaop/modforge/internal/relational"
	"github.com/zaop/modforge/internal/writer"
)

// Config is the mods.json configuration file's shape, per spec.md §6.
type Config struct {
	Version        string          `json:"version"`
	Database       string          `json:"database"`
	Sqlite         string          `json:"sqlite"`
	ResourceFolder string          `json:"resource_folder"`
	Priorities     []PriorityEntry `json:"priorities,omitempty"`
}

// PriorityEntry is accepted in configuration but unused in scope, per
// spec.md §6.
type PriorityEntry struct {
	Directory string `json:"directory"`
	Priority  int    `json:"priority"`
}

func defaultConfig() Config {
	return Config{
		Version:        "1.0",
		Database:       "cdclient.fdb",
		Sqlite:         "CDServer.sqlite",
		ResourceFolder: "",
	}
}

// LoadOrCreateConfig reads path's JSON configuration, writing a default
// document first if the file doesn't exist yet, matching the original
// tool's read_or_create_json.
func LoadOrCreateConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := defaultConfig()
		if werr := writeJSON(path, cfg); werr != nil {
			return Config{}, werr
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, errs.Wrap(errs.KindManifestIOError, "reading configuration", err)
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errs.Wrap(errs.KindManifestIOError, "parsing configuration", err)
	}
	return cfg, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindManifestIOError, "encoding configuration", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindManifestIOError, "writing configuration", err)
	}
	return nil
}

// Manifest is one package's file list, per spec.md §6.
type Manifest struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// DiscoverPackages finds every immediate subdirectory of root containing a
// manifest.json file, in the filesystem's directory-enumeration order
// (os.ReadDir already sorts by name, matching std::fs::read_dir's
// platform-default enumeration closely enough to be deterministic here).
func DiscoverPackages(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errs.Wrap(errs.KindManifestIOError, "scanning for packages", err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err == nil {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

func readManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, "manifest.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errs.Wrap(errs.KindManifestIOError, path, err)
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return Manifest{}, errs.Wrap(errs.KindManifestIOError, path, err)
	}
	return man, nil
}

// LoadMods discovers every package under root, reads each package's
// manifest and every file it lists, decodes and expands every mod entry in
// declared order, and pushes each into ctx's buffer — one package
// directory, one manifest file list, one mod file at a time, matching
// apply_manifest's nested iteration.
func LoadMods(ctx *mod.Context, root string) error {
	packages, err := DiscoverPackages(root)
	if err != nil {
		return err
	}

	for _, dir := range packages {
		man, err := readManifest(dir)
		if err != nil {
			return err
		}
		for _, file := range man.Files {
			path := filepath.Join(dir, file)
			data, err := os.ReadFile(path)
			if err != nil {
				return errs.Wrap(errs.KindManifestIOError, path, err)
			}

			mods, err := mod.DecodeMods(data)
			if err != nil {
				return err
			}
			for _, m := range mods {
				m.Dir = dir
				if err := mod.Expand(ctx, m); err != nil {
					return err
				}
				if err := ctx.Push(m); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// FixupLocale rewrites every collected phrase template's placeholder with
// its owning mod's final allocated id, appends the result to loc's phrase
// list, and recomputes the locale/phrase counts — spec.md §4.7.
func FixupLocale(loc *locale.Localization, mods []*mod.Mod, sym *alloc.SymbolTable) error {
	for _, m := range mods {
		for _, phrase := range m.CollectedPhrases {
			id, ok := sym.Resolve(phrase.OwnerModID)
			if !ok {
				return errs.Newf(errs.KindUnresolvedSymbol, "%s", phrase.OwnerModID).WithMod(m.ID)
			}
			loc.Phrases.Phrase = append(loc.Phrases.Phrase, phrase.Template.Resolve(id))
		}
	}
	loc.Locales.Count = int32(len(loc.Locales.Locale))
	loc.Phrases.Count = int32(len(loc.Phrases.Phrase))
	return nil
}

// sqlPatches collects every sql mod's resolved sql body, in buffer order.
func sqlPatches(mods []*mod.Mod) []string {
	var patches []string
	for _, m := range mods {
		if m.Kind != "sql" {
			continue
		}
		if sql, ok := m.RawValues["sql"].(string); ok {
			patches = append(patches, sql)
		}
	}
	return patches
}

// Paths gathers the filesystem locations a Run needs, all resolved
// relative to the mods root directory (the input file's parent), matching
// the original tool's std::env::set_current_dir to that directory before
// every subsequent relative path.
type Paths struct {
	Root string

	// StockDatabase is read once at startup to build the in-memory store
	// (cfg.Database — a working copy the run never mutates).
	StockDatabase string

	// PackedOutput is the fixed relative path every run (re)writes the
	// merged packed database to, independent of StockDatabase.
	PackedOutput string

	LocaleXML string
}

// Run executes one full pipeline pass: load stock state, expand every
// package's mods, allocate and resolve ids, fix up localization, and write
// the packed database, relational database, and localization outputs.
// Timing and the final symbol table are reported through log.
func Run(cfg Config, paths Paths, log func(string)) error {
	if log == nil {
		log = func(string) {}
	}

	timer := newTimer()

	store, err := packeddb.Load(paths.StockDatabase)
	if err != nil {
		return err
	}
	log(timer.lap("Opening database"))

	localeFile, err := os.Open(paths.LocaleXML)
	if err != nil {
		return errs.Wrap(errs.KindStockDatabaseIOError, "opening locale.xml", err)
	}
	loc, err := locale.Read(localeFile)
	_ = localeFile.Close()
	if err != nil {
		return errs.Wrap(errs.KindStockDatabaseIOError, "parsing locale.xml", err)
	}
	log(timer.lap("Reading locale"))

	ctx := mod.NewContext(store)
	if err := LoadMods(ctx, paths.Root); err != nil {
		return err
	}
	log(timer.lap("Applying mods"))

	sym, err := alloc.AllocateIDs(store, ctx.Buffer)
	if err != nil {
		return err
	}
	resolved, err := alloc.Resolve(store, ctx.Buffer, sym)
	if err != nil {
		return err
	}
	registry, err := alloc.BuildComponentRegistry(resolved)
	if err != nil {
		return err
	}
	log(timer.lap("Allocating ids"))

	if err := FixupLocale(loc, ctx.Buffer, sym); err != nil {
		return err
	}

	tables, err := writer.Materialize(store, resolved, registry)
	if err != nil {
		return err
	}
	log(timer.lap("Building output database"))

	if err := packeddb.WriteFile(paths.PackedOutput, tables); err != nil {
		return err
	}
	log(timer.lap("Exporting packed database"))

	if err := relational.Write(cfg.Sqlite, tables, sqlPatches(ctx.Buffer)); err != nil {
		return err
	}
	log(timer.lap("Exporting relational database"))

	localeOut, err := os.Create(paths.LocaleXML)
	if err != nil {
		return errs.Wrap(errs.KindOutputIOError, "creating locale.xml", err)
	}
	writeErr := locale.Write(localeOut, loc)
	closeErr := localeOut.Close()
	if writeErr != nil {
		return errs.Wrap(errs.KindOutputIOError, "writing locale.xml", writeErr)
	}
	if closeErr != nil {
		return errs.Wrap(errs.KindOutputIOError, "writing locale.xml", closeErr)
	}
	log(timer.lap("Exporting locale"))

	log(formatSymbolTable(sym, ctx.Buffer))
	return nil
}

// formatSymbolTable renders every mod id that received an allocated id,
// sorted by id string, matching the original tool's final "Generated IDs"
// printout.
func formatSymbolTable(sym *alloc.SymbolTable, mods []*mod.Mod) string {
	ids := make(map[string]int32)
	for _, m := range mods {
		if id, ok := sym.Resolve(m.ID); ok {
			ids[m.ID] = id
		}
	}

	keys := make([]string, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines string
	lines = "Generated IDs:\n"
	for _, k := range keys {
		lines += fmt.Sprintf(" %5d : %s\n", ids[k], k)
	}
	return lines
}

type timer struct {
	start time.Time
	last  time.Time
}

func newTimer() *timer {
	now := timerNow()
	return &timer{start: now, last: now}
}

// lap reports the elapsed time since the previous lap, matching
// print_timer's per-step reporting.
func (t *timer) lap(step string) string {
	now := timerNow()
	elapsed := now.Sub(t.last)
	t.last = now
	return fmt.Sprintf("%s... done in %s", step, elapsed.Round(time.Millisecond))
}

var timerNow = time.Now

// Package pipeline orchestrates the four translation stages —
// internal/jackc, internal/linker, internal/vmc, internal/hackasm —
// plus the cross-cutting internal/pdb database, into the single driver
// entry point spec.md §6 describes (the CLI surface itself lives in
// cmd/hackc).
package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"

	"github.com/hackc-toolchain/hackc/internal/embedos"
	"github.com/hackc-toolchain/hackc/internal/hackasm"
	"github.com/hackc-toolchain/hackc/internal/jackc"
	"github.com/hackc-toolchain/hackc/internal/linker"
	"github.com/hackc-toolchain/hackc/internal/pdb"
	"github.com/hackc-toolchain/hackc/internal/vmc"
)

// Mode selects how far through the pipeline a single run goes — the
// driver's -m flag (spec.md §6).
type Mode int

const (
	ModeFull Mode = iota
	ModeJack
	ModeVM
	ModeLink
	ModeAsm
)

// Config gathers every knob the driver exposes across the four stages.
type Config struct {
	Bootstrap      bool
	LegacyEncoding bool
	Format         hackasm.Format
	LibDir         string // real Jack OS sources; embedos.Files is the fallback
	Root           string // entry point function for the linker, default "Sys.init"
}

// Result is everything a completed run produces: the rendered output
// text, the raw assembled words, and the populated PDB ready for JSON
// serialization (its HaltAddr feeds the loader format's header).
type Result struct {
	Rendered string
	Words    []uint16
	DB       *pdb.PDB
}

func (c Config) root() string {
	if c.Root == "" {
		return "Sys.init"
	}
	return c.Root
}

// RunDirectory runs the full pipeline over every .jack file in dir (and
// libDir, if set), falling back to the embedded OS stubs of
// internal/embedos when no library directory is supplied. This is
// spec.md §6's "missing mode with a directory input runs the full
// pipeline" behavior.
func RunDirectory(cfg Config, dir string) (*Result, error) {
	db := pdb.New()
	lnk := linker.New()

	jackFiles, err := collectJackFiles(dir)
	if err != nil {
		return nil, &StageError{Stage: "jackc", Err: err}
	}
	glog.V(1).Infof("pipeline: compiling %d Jack source file(s) from %s", len(jackFiles), dir)

	for _, path := range jackFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, &StageError{Stage: "jackc", Err: err}
		}
		vmText, err := jackc.Compile(src, path, db)
		if err != nil {
			return nil, &StageError{Stage: "jackc", Err: err}
		}
		if err := lnk.AddFile(vmText); err != nil {
			return nil, &StageError{Stage: "linker", Err: err}
		}
	}

	if err := addLibrary(lnk, db, cfg.LibDir); err != nil {
		return nil, err
	}

	return runFromLinker(cfg, lnk, db)
}

// addLibrary loads the Jack OS: the .jack sources under libDir when
// supplied (.vm files there are not read), otherwise the embedded
// fixture of internal/embedos
// (SPEC_FULL.md §5.1).
func addLibrary(lnk *linker.Linker, db *pdb.PDB, libDir string) error {
	if libDir == "" {
		glog.V(1).Info("pipeline: no -L library directory given, using embedded OS stubs")
		names := make([]string, 0, len(embedos.Files))
		for name := range embedos.Files {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := lnk.AddFile(embedos.Files[name]); err != nil {
				return &StageError{Stage: "linker", Err: err}
			}
		}
		return nil
	}

	glog.V(1).Infof("pipeline: loading Jack OS library from %s", libDir)
	jackFiles, err := collectJackFiles(libDir)
	if err != nil {
		return &StageError{Stage: "jackc", Err: err}
	}
	for _, path := range jackFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return &StageError{Stage: "jackc", Err: err}
		}
		vmText, err := jackc.Compile(src, path, db)
		if err != nil {
			return &StageError{Stage: "jackc", Err: err}
		}
		if err := lnk.AddFile(vmText); err != nil {
			return &StageError{Stage: "linker", Err: err}
		}
	}
	return nil
}

func runFromLinker(cfg Config, lnk *linker.Linker, db *pdb.PDB) (*Result, error) {
	merged, err := lnk.Link(cfg.root())
	if err != nil {
		return nil, &StageError{Stage: "linker", Err: err}
	}

	asmText, err := vmc.Lower(merged, vmc.Config{Bootstrap: cfg.Bootstrap, FileTag: "main"})
	if err != nil {
		return nil, &StageError{Stage: "vmc", Err: err}
	}

	asm := hackasm.New(hackasm.Config{LegacyEncoding: cfg.LegacyEncoding})
	words, err := asm.Assemble(asmText, "<linked>", db)
	if err != nil {
		return nil, &StageError{Stage: "hackasm", Err: err}
	}

	return &Result{
		Rendered: asm.Render(cfg.Format, db.HaltAddr),
		Words:    words,
		DB:       db,
	}, nil
}

// RunVM runs the pipeline starting from already-compiled VM text: used
// by -m vm and -m link on a single .vm file. Directory inputs go
// through RunDirectory, which does not read .vm files.
func RunVM(cfg Config, vmTexts map[string]string) (*Result, error) {
	db := pdb.New()
	lnk := linker.New()

	names := make([]string, 0, len(vmTexts))
	for name := range vmTexts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := lnk.AddFile(vmTexts[name]); err != nil {
			return nil, &StageError{Stage: "linker", Err: err}
		}
	}
	if err := addLibrary(lnk, db, cfg.LibDir); err != nil {
		return nil, err
	}
	return runFromLinker(cfg, lnk, db)
}

// RunAsm runs only the assembler stage over one already-lowered ASM
// text: used by -m asm.
func RunAsm(cfg Config, asmText, path string) (*Result, error) {
	db := pdb.New()
	asm := hackasm.New(hackasm.Config{LegacyEncoding: cfg.LegacyEncoding})
	words, err := asm.Assemble(asmText, path, db)
	if err != nil {
		return nil, &StageError{Stage: "hackasm", Err: err}
	}
	return &Result{Rendered: asm.Render(cfg.Format, db.HaltAddr), Words: words, DB: db}, nil
}

func collectJackFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jack") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

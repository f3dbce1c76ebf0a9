// Command hackc drives the four-stage Nand2Tetris toolchain: Jack
// source, linked VM text, Hack assembly, and 16-bit machine words
// (spec.md §1).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/urfave/cli"

	"github.com/hackc-toolchain/hackc/internal/hackasm"
	"github.com/hackc-toolchain/hackc/internal/jackc"
	"github.com/hackc-toolchain/hackc/internal/pdb"
	"github.com/hackc-toolchain/hackc/internal/pipeline"
)

func main() {
	app := cli.NewApp()
	app.Name = "hackc"
	app.Usage = "compile Jack, VM or ASM sources down to Hack machine words"
	app.ArgsUsage = "input"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "o", Usage: "output path (default: stdout)"},
		cli.StringFlag{Name: "f", Value: "binary", Usage: "output format: binary, hex, loader, test"},
		cli.StringFlag{Name: "l", Usage: "PDB sidecar output path"},
		cli.StringFlag{Name: "L", Usage: "Jack OS library directory (default: embedded stubs)"},
		cli.StringFlag{Name: "m", Usage: "stage to run: jack, vm, link, asm (default: full, inferred from input)"},
		cli.BoolFlag{Name: "bootstrap", Usage: "emit the SP-init + call Sys.init 0 preamble"},
		cli.BoolFlag{Name: "legacy-encoding", Usage: "omit the 0xE000 high bits on C-instructions"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		glog.Errorln(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		return cli.NewExitError("hackc: missing input path", 1)
	}

	format, err := hackasm.ParseFormat(c.String("f"))
	if err != nil {
		return cli.NewExitError((&pipeline.FormatError{Detail: err.Error()}).Error(), 1)
	}

	cfg := pipeline.Config{
		Bootstrap:      c.Bool("bootstrap"),
		LegacyEncoding: c.Bool("legacy-encoding"),
		Format:         format,
		LibDir:         c.String("L"),
	}

	mode, err := resolveMode(c.String("m"), input)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	result, err := runMode(mode, cfg, input)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("hackc: %v", err), 1)
	}

	if err := writeOutput(c.String("o"), result.Rendered); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if listing := c.String("l"); listing != "" {
		if err := writePDB(listing, result.DB); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	return nil
}

func resolveMode(flag, input string) (pipeline.Mode, error) {
	switch flag {
	case "jack":
		return pipeline.ModeJack, nil
	case "vm":
		return pipeline.ModeVM, nil
	case "link":
		return pipeline.ModeLink, nil
	case "asm":
		return pipeline.ModeAsm, nil
	case "", "full":
		return pipeline.ModeFull, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", flag)
	}
}

// runMode dispatches on both the explicit/inferred mode and whether
// input is a file or a directory, per spec.md §6: a directory always
// runs the full pipeline over its contents; a single file runs the
// stage its extension implies unless -m overrides it.
func runMode(mode pipeline.Mode, cfg pipeline.Config, input string) (*pipeline.Result, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		glog.V(1).Infof("hackc: running full pipeline over directory %s", input)
		return pipeline.RunDirectory(cfg, input)
	}

	if mode == pipeline.ModeFull {
		mode = modeFromExtension(input)
	}

	switch mode {
	case pipeline.ModeAsm:
		src, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		return pipeline.RunAsm(cfg, string(src), input)
	case pipeline.ModeVM, pipeline.ModeLink:
		src, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		return pipeline.RunVM(cfg, map[string]string{input: string(src)})
	case pipeline.ModeJack:
		return runJackOnly(cfg, input)
	default:
		return pipeline.RunDirectory(cfg, filepath.Dir(input))
	}
}

// runJackOnly stops after the Jack front end, returning its VM text as
// the rendered output with no assembly step (-m jack).
func runJackOnly(cfg pipeline.Config, input string) (*pipeline.Result, error) {
	src, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	db := pdb.New()
	vmText, err := jackc.Compile(src, input, db)
	if err != nil {
		return nil, &pipeline.StageError{Stage: "jackc", Err: err}
	}
	return &pipeline.Result{Rendered: vmText, DB: db}, nil
}

func modeFromExtension(input string) pipeline.Mode {
	switch strings.ToLower(filepath.Ext(input)) {
	case ".jack":
		return pipeline.ModeJack
	case ".vm":
		return pipeline.ModeVM
	case ".asm":
		return pipeline.ModeAsm
	default:
		return pipeline.ModeFull
	}
}

func writeOutput(path, rendered string) error {
	if path == "" {
		if _, err := fmt.Fprint(os.Stdout, rendered); err != nil {
			return &pipeline.FormatError{Detail: fmt.Sprintf("writing to stdout: %v", err)}
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return &pipeline.FormatError{Detail: fmt.Sprintf("writing output %s: %v", path, err)}
	}
	return nil
}

func writePDB(path string, db *pdb.PDB) error {
	data, err := db.MarshalJSON()
	if err != nil {
		return &pipeline.FormatError{Detail: fmt.Sprintf("marshaling PDB: %v", err)}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &pipeline.FormatError{Detail: fmt.Sprintf("writing PDB listing %s: %v", path, err)}
	}
	return nil
}

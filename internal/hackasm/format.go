package hackasm

import (
	"fmt"
	"strings"
)

// Format selects one of the four output renderings of spec.md §6.
type Format int

const (
	FormatBinary Format = iota
	FormatHex
	FormatLoader
	FormatTest
)

// ParseFormat maps the CLI's -f value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "binary", "":
		return FormatBinary, nil
	case "hex", "hx":
		return FormatHex, nil
	case "loader", "hackem":
		return FormatLoader, nil
	case "test":
		return FormatTest, nil
	default:
		return 0, fmt.Errorf("hackasm: unknown output format %q", s)
	}
}

// Render produces the textual output for one assembled program in the
// requested format. haltAddr is used only by FormatLoader's header.
func (a *Assembler) Render(format Format, haltAddr int) string {
	switch format {
	case FormatHex:
		return renderHex(a.instructions)
	case FormatLoader:
		return renderLoader(a.instructions, a.data, haltAddr)
	case FormatTest:
		return renderTest(a.instructions)
	default:
		return renderBinary(a.instructions)
	}
}

func renderBinary(words []uint16) string {
	var b strings.Builder
	for _, w := range words {
		fmt.Fprintf(&b, "%016b\n", w)
	}
	return b.String()
}

func renderHex(words []uint16) string {
	var b strings.Builder
	for _, w := range words {
		fmt.Fprintf(&b, "%04x\n", w)
	}
	return b.String()
}

func renderTest(words []uint16) string {
	var b strings.Builder
	for i, w := range words {
		fmt.Fprintf(&b, " cpu.rom[%d]=0x%04x;\n", i, w)
	}
	return b.String()
}

// renderLoader produces the "hackem" loader format of spec.md §6:
// a header line, a ROM@0000 marker, the instruction words in hex, then
// one RAM@<addr> marker per contiguous run of .word data.
func renderLoader(words []uint16, data []dataEntry, haltAddr int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "hackem v1.0 0x%04x\n", haltAddr)
	b.WriteString("ROM@0000\n")
	for _, w := range words {
		fmt.Fprintf(&b, "%04x\n", w)
	}
	for _, run := range contiguousRuns(data) {
		fmt.Fprintf(&b, "RAM@%04x\n", run.addr)
		for _, v := range run.values {
			fmt.Fprintf(&b, "%04x\n", v)
		}
	}
	return b.String()
}

type dataRun struct {
	addr   int
	values []uint16
}

// contiguousRuns groups data entries into maximal runs of consecutive
// addresses, preserving input order (the order .word directives were
// encountered). Runs are not sorted by address: an .org that moves the
// data address backward starts a new run after the earlier ones.
func contiguousRuns(data []dataEntry) []dataRun {
	var runs []dataRun
	for _, e := range data {
		if len(runs) > 0 {
			last := &runs[len(runs)-1]
			if e.addr == last.addr+len(last.values) {
				last.values = append(last.values, e.val)
				continue
			}
		}
		runs = append(runs, dataRun{addr: e.addr, values: []uint16{e.val}})
	}
	return runs
}

// Package vmc lowers one merged VM text into Hack ASM: per-opcode
// translation templates, a shared call/return firmware, and the two
// documented peephole fusions (spec.md §4.3).
//
// PDB `// ++pdb f:l:c` marker comments are copied through to the ASM
// output unchanged at the position they'd occupy — the Assembler is
// the stage that turns them into source_map entries (spec.md §4.4), so
// this package never touches the PDB itself.
package vmc

import (
	"fmt"
	"strings"
)

// Config controls optional lowering behavior.
type Config struct {
	Bootstrap bool   // emit the @256/SP-init + call Sys.init 0 preamble
	FileTag   string // disambiguates synthesized labels across independent Lower calls
}

// UnknownOpError is returned for a VM line this lowering doesn't
// recognize — malformed input past what the VM grammar of spec.md §6
// allows.
type UnknownOpError struct{ Line string }

func (e *UnknownOpError) Error() string { return fmt.Sprintf("vmc: unrecognized VM line: %q", e.Line) }

type pushTag struct {
	startOffset int
	seg         string // "constant", or one of the eight VM segment names
	idx         int
}

type lowering struct {
	cfg Config

	out          []string
	lastPush     *pushTag
	labelCounter int

	curFunc   string
	curModule string
}

// Lower translates merged VM text to Hack ASM text.
func Lower(vmText string, cfg Config) (string, error) {
	l := &lowering{cfg: cfg}

	if cfg.Bootstrap {
		l.emitRaw("@256")
		l.emitRaw("D=A")
		l.emitRaw("@SP")
		l.emitRaw("M=D")
		l.emitCall("Sys.init", 0)
	}

	for _, line := range strings.Split(vmText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "//") {
			l.passThroughComment(trimmed)
			continue
		}
		if err := l.lowerStatement(trimmed); err != nil {
			return "", err
		}
	}

	l.emitFirmware()
	return strings.Join(l.out, "\n") + "\n", nil
}

// passThroughComment copies a PDB marker or stray comment line through
// to the ASM stream without disturbing the peephole tracker — spec.md
// §9's open question, resolved in favor of fusion still applying across
// pure-comment intervening emissions.
func (l *lowering) passThroughComment(c string) {
	l.out = append(l.out, c)
}

func (l *lowering) emitRaw(line string) {
	l.out = append(l.out, line)
}

func (l *lowering) freshLabel() string {
	n := l.labelCounter
	l.labelCounter++
	return fmt.Sprintf("L_%s_%d", l.cfg.FileTag, n)
}

func (l *lowering) lowerStatement(line string) error {
	fields := strings.Fields(line)
	op := fields[0]
	switch op {
	case "push":
		l.lowerPush(fields[1], fields[2])
	case "pop":
		l.lowerPop(fields[1], fields[2])
	case "add", "sub", "and", "or":
		l.lowerBinary(op)
		l.lastPush = nil
	case "neg", "not":
		l.lastPush = nil
		l.lowerUnary(op)
	case "eq", "lt", "gt":
		l.lastPush = nil
		l.lowerCompare(op)
	case "label":
		l.lastPush = nil
		l.emitRaw("(" + l.scopedLabel(fields[1]) + ")")
	case "goto":
		l.lastPush = nil
		l.emitRaw("@" + l.scopedLabel(fields[1]))
		l.emitRaw("0;JMP")
	case "if-goto":
		l.lastPush = nil
		l.popToD()
		l.emitRaw("@" + l.scopedLabel(fields[1]))
		l.emitRaw("D;JNE")
	case "function":
		l.lastPush = nil
		l.lowerFunction(fields[1], atoi(fields[2]))
	case "call":
		l.lastPush = nil
		l.emitCall(fields[1], atoi(fields[2]))
	case "return":
		l.lastPush = nil
		l.emitRaw("@FW__RETURN")
		l.emitRaw("0;JMP")
	default:
		return &UnknownOpError{Line: line}
	}
	return nil
}

func atoi(s string) int {
	n := 0
	neg := false
	for i, ch := range s {
		if i == 0 && ch == '-' {
			neg = true
			continue
		}
		n = n*10 + int(ch-'0')
	}
	if neg {
		return -n
	}
	return n
}

// scopedLabel implements spec.md §4.3's "rewrite L to
// <File>.<CurFunc>$L for locality". CurFunc is already the fully
// qualified `Class.method` name (set by the `function` opcode), so the
// rewritten label is simply CurFunc$L — this is the "<File>.<CurFunc>"
// qualification collapsed to its one informative component, since the
// class name already disambiguates across the merged VM file.
func (l *lowering) scopedLabel(name string) string {
	return l.curFunc + "$" + name
}

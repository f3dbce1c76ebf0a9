// Package hackasm implements the assembler stage: Hack ASM text to
// 16-bit machine words, plus the four output-format renderers and the
// PDB symbol/source-map integration (spec.md §4.4).
package hackasm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/hackc-toolchain/hackc/internal/hackvm"
	"github.com/hackc-toolchain/hackc/internal/pdb"
)

// Config controls the one documented behavior switch of spec.md §9's
// open questions: whether C-instructions carry the 0xE000 high bits.
type Config struct {
	LegacyEncoding bool
}

// RedefinitionError covers a duplicate label definition or a label
// that collides with a reserved symbol.
type RedefinitionError struct{ Name string }

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("hackasm: label %q redefined or reserved", e.Name)
}

// SyntaxError covers a malformed instruction line.
type SyntaxError struct {
	Line int
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("hackasm:%d: cannot parse instruction %q", e.Line, e.Text)
}

type dataEntry struct {
	addr int
	val  uint16
}

// Assembler holds the mutable state of one assembly: emitted ROM
// words, the label table, and the list of pending forward references
// (spec.md §4.4 "Pass structure").
type Assembler struct {
	cfg Config

	instructions []uint16
	labels       map[string]int
	forwardRefs  map[string][]int // name -> ROM indices awaiting fixup

	data       []dataEntry
	nextOrg    int
	dataSeen   bool

	db      *pdb.PDB
	fileIdx int
}

func New(cfg Config) *Assembler {
	return &Assembler{
		cfg:         cfg,
		labels:      make(map[string]int),
		forwardRefs: make(map[string][]int),
	}
}

// Assemble translates one ASM text into machine words, mutating db
// with source_map entries and Func address back-patches as it goes
// (spec.md §4.4 "PDB integration").
func (a *Assembler) Assemble(source, path string, db *pdb.PDB) ([]uint16, error) {
	a.db = db
	if db != nil {
		a.fileIdx = db.AddFile(path, pdb.FileAsm)
	}

	for lineNo, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "//") {
			a.handleComment(line)
			continue
		}
		if err := a.assembleLine(line, lineNo+1); err != nil {
			return nil, err
		}
	}

	a.resolveForwardReferences()
	return a.instructions, nil
}

func (a *Assembler) handleComment(line string) {
	if a.db == nil {
		return
	}
	body := strings.TrimSpace(strings.TrimPrefix(line, "//"))
	if !strings.HasPrefix(body, "++pdb ") {
		return
	}
	parts := strings.Split(strings.TrimPrefix(body, "++pdb "), ":")
	if len(parts) != 3 {
		return
	}
	f, _ := strconv.Atoi(parts[0])
	l, _ := strconv.Atoi(parts[1])
	c, _ := strconv.Atoi(parts[2])
	a.db.AddSourceMapEntry(f, l, c, len(a.instructions))
}

func (a *Assembler) assembleLine(line string, lineNo int) error {
	switch {
	case strings.HasPrefix(line, "("):
		return a.assembleLabel(line)
	case strings.HasPrefix(line, "@"):
		return a.assembleAInstruction(line[1:])
	case strings.HasPrefix(line, ".org"):
		return a.assembleOrg(line)
	case strings.HasPrefix(line, ".word"):
		return a.assembleWord(line)
	default:
		return a.assembleCInstruction(line, lineNo)
	}
}

func (a *Assembler) assembleLabel(line string) error {
	if !strings.HasSuffix(line, ")") {
		return &SyntaxError{Text: line}
	}
	name := line[1 : len(line)-1]
	if _, reserved := hackvm.ReservedSymbols[name]; reserved {
		return &RedefinitionError{Name: name}
	}
	if _, defined := a.labels[name]; defined {
		return &RedefinitionError{Name: name}
	}
	a.labels[name] = len(a.instructions)
	if a.db != nil {
		a.db.BackpatchFunc(name, len(a.instructions))
	}
	return nil
}

func (a *Assembler) assembleAInstruction(operand string) error {
	idx := len(a.instructions)

	if n, ok := parseNumericLiteral(operand); ok {
		if n > hackvm.MaxAddress {
			return &SyntaxError{Text: "@" + operand}
		}
		a.instructions = append(a.instructions, uint16(n))
		return nil
	}
	if addr, ok := hackvm.ReservedSymbols[operand]; ok {
		a.instructions = append(a.instructions, uint16(addr))
		return nil
	}
	if addr, ok := a.labels[operand]; ok {
		a.instructions = append(a.instructions, uint16(addr))
		return nil
	}
	// Unresolved: might be a later label or a variable (spec.md §7 — a
	// deliberate non-error, since Jack/VM never declare machine-level
	// variables but the assembler must still accept them).
	a.forwardRefs[operand] = append(a.forwardRefs[operand], idx)
	a.instructions = append(a.instructions, 0)
	return nil
}

func parseNumericLiteral(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 32)
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (a *Assembler) assembleCInstruction(line string, lineNo int) error {
	dest := ""
	rest := line
	if eq := strings.IndexByte(line, '='); eq >= 0 {
		dest = strings.TrimSpace(line[:eq])
		rest = line[eq+1:]
	}
	comp := rest
	jump := ""
	if semi := strings.IndexByte(rest, ';'); semi >= 0 {
		comp = strings.TrimSpace(rest[:semi])
		jump = strings.TrimSpace(rest[semi+1:])
	}
	comp = strings.TrimSpace(comp)

	compBits, ok := hackvm.CompTable[comp]
	if !ok {
		return &SyntaxError{Line: lineNo, Text: line}
	}
	destBits, ok := hackvm.DestTable[dest]
	if !ok {
		return &SyntaxError{Line: lineNo, Text: line}
	}
	jumpBits, ok := hackvm.JumpTable[jump]
	if !ok {
		return &SyntaxError{Line: lineNo, Text: line}
	}

	word := compBits<<6 | destBits<<3 | jumpBits
	if !a.cfg.LegacyEncoding {
		word |= hackvm.CInstructionOpcode
	}
	a.instructions = append(a.instructions, word)
	return nil
}

func (a *Assembler) assembleOrg(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return &SyntaxError{Text: line}
	}
	n, ok := parseNumericLiteral(fields[1])
	if !ok {
		return &SyntaxError{Text: line}
	}
	a.nextOrg = n
	return nil
}

func (a *Assembler) assembleWord(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return &SyntaxError{Text: line}
	}
	n, ok := parseNumericLiteral(fields[1])
	if !ok {
		return &SyntaxError{Text: line}
	}
	a.data = append(a.data, dataEntry{addr: a.nextOrg, val: uint16(n)})
	a.nextOrg++
	a.dataSeen = true
	return nil
}

// resolveForwardReferences implements spec.md §4.4's final step: known
// labels get their bound address; every other referenced name becomes
// a fresh variable address starting at 16, allocated in lexicographic
// order of name for reproducibility.
func (a *Assembler) resolveForwardReferences() {
	var unresolved []string
	for name := range a.forwardRefs {
		if _, isLabel := a.labels[name]; !isLabel {
			unresolved = append(unresolved, name)
		}
	}
	sort.Strings(unresolved)

	glog.V(1).Infof("hackasm: %d forward reference(s), %d resolved as variables: %v",
		len(a.forwardRefs), len(unresolved), unresolved)

	nextVar := hackvm.StaticBase
	varAddr := make(map[string]int, len(unresolved))
	for _, name := range unresolved {
		varAddr[name] = nextVar
		glog.V(2).Infof("hackasm: variable %q assigned address %d", name, nextVar)
		nextVar++
	}

	for name, indices := range a.forwardRefs {
		addr, isLabel := a.labels[name]
		if !isLabel {
			addr = varAddr[name]
		}
		for _, idx := range indices {
			a.instructions[idx] = uint16(addr)
		}
	}
}

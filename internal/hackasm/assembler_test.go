package hackasm

import (
	"testing"

	"github.com/hackc-toolchain/hackc/internal/hackvm"
	"github.com/hackc-toolchain/hackc/internal/pdb"
)

func TestAssembleSimpleLoop(t *testing.T) {
	src := `@0
D=A
(LOOP)
@1
D=D+A
@LOOP
D;JLE
`
	a := New(Config{})
	words, err := a.Assemble(src, "loop.asm", pdb.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(words) != 6 {
		t.Fatalf("want 6 instructions, got %d", len(words))
	}
	if words[0] != 0 {
		t.Errorf("want words[0]=0, got %d", words[0])
	}
	loopAddr := words[4] // the resolved @LOOP reference
	if loopAddr != 2 {
		t.Errorf("want LOOP resolved to address 2, got %d", loopAddr)
	}
}

func TestAssembleLegacyEncodingOmitsOpcode(t *testing.T) {
	strict := New(Config{LegacyEncoding: false})
	legacy := New(Config{LegacyEncoding: true})

	line := "D=A\n"
	sw, err := strict.Assemble(line, "x.asm", pdb.New())
	if err != nil {
		t.Fatal(err)
	}
	lw, err := legacy.Assemble(line, "x.asm", pdb.New())
	if err != nil {
		t.Fatal(err)
	}
	if sw[0]&hackvm.CInstructionOpcode == 0 {
		t.Errorf("strict encoding should carry the 0xE000 high bits, got %016b", sw[0])
	}
	if lw[0]&hackvm.CInstructionOpcode != 0 {
		t.Errorf("legacy encoding should omit the 0xE000 high bits, got %016b", lw[0])
	}
}

func TestAssembleRedefinedLabel(t *testing.T) {
	src := "(LOOP)\n@0\n(LOOP)\n"
	a := New(Config{})
	_, err := a.Assemble(src, "dup.asm", pdb.New())
	if _, ok := err.(*RedefinitionError); !ok {
		t.Fatalf("want *RedefinitionError, got %T (%v)", err, err)
	}
}

func TestAssembleReservedSymbolAsLabelIsRejected(t *testing.T) {
	a := New(Config{})
	_, err := a.Assemble("(SP)\n", "bad.asm", pdb.New())
	if _, ok := err.(*RedefinitionError); !ok {
		t.Fatalf("want *RedefinitionError for reserved name, got %T (%v)", err, err)
	}
}

func TestAssembleUnresolvedVariableGetsDenseAddressFromStaticBase(t *testing.T) {
	src := "@foo\nD=A\n@bar\nD=A\n"
	a := New(Config{})
	words, err := a.Assemble(src, "vars.asm", pdb.New())
	if err != nil {
		t.Fatal(err)
	}
	// "bar" < "foo" lexicographically, so bar gets StaticBase and foo
	// gets StaticBase+1 regardless of reference order (spec.md §4.4).
	if words[0] != hackvm.StaticBase+1 {
		t.Errorf("want foo at %d, got %d", hackvm.StaticBase+1, words[0])
	}
	if words[2] != hackvm.StaticBase {
		t.Errorf("want bar at %d, got %d", hackvm.StaticBase, words[2])
	}
}

func TestAssemblePopulatesSourceMap(t *testing.T) {
	src := "// ++pdb 0:3:1\n@256\nD=A\n"
	a := New(Config{})
	db := pdb.New()
	db.AddFile("main.vm", pdb.FileVm)
	if _, err := a.Assemble(src, "main.asm", db); err != nil {
		t.Fatal(err)
	}
	if len(db.SourceMap) != 1 {
		t.Fatalf("want 1 source map entry, got %d", len(db.SourceMap))
	}
	if db.SourceMap[0].RomAddr != 0 {
		t.Errorf("want rom_addr 0 (marker precedes first instruction), got %d", db.SourceMap[0].RomAddr)
	}
}

func TestRenderFormats(t *testing.T) {
	a := New(Config{})
	if _, err := a.Assemble("@256\n", "x.asm", pdb.New()); err != nil {
		t.Fatal(err)
	}
	if got := a.Render(FormatBinary, 0); got != "0000000100000000\n" {
		t.Errorf("unexpected binary rendering: %q", got)
	}
	if got := a.Render(FormatHex, 0); got != "0100\n" {
		t.Errorf("unexpected hex rendering: %q", got)
	}
}

// Package hackvm holds the data-layout contract shared by the Jack
// compiler, the VM lowering stage and the assembler: VM segment names,
// reserved Hack RAM locations, and the C-instruction bit tables. The
// assembler imports it for reserved symbols and encoding; the Jack
// compiler and the VM lowering stage do not import it and write segment
// names, base addresses and ASM mnemonics as their own literals.
package hackvm

// Segment identifies one of the eight logical VM memory regions.
type Segment int

const (
	SegArgument Segment = iota
	SegLocal
	SegStatic
	SegConstant
	SegThis
	SegThat
	SegPointer
	SegTemp
)

// SegmentNames maps the VM text spelling to its Segment.
var SegmentNames = map[string]Segment{
	"argument": SegArgument,
	"local":    SegLocal,
	"static":   SegStatic,
	"constant": SegConstant,
	"this":     SegThis,
	"that":     SegThat,
	"pointer":  SegPointer,
	"temp":     SegTemp,
}

func (s Segment) String() string {
	for name, seg := range SegmentNames {
		if seg == s {
			return name
		}
	}
	return "unknown"
}

// PointerBase/TempBase are the direct-addressed bases for the pointer
// and temp segments (spec.md §3).
const (
	PointerBase = 3
	TempBase    = 5
)

// Reserved RAM locations.
const (
	AddrSP     = 0
	AddrLCL    = 1
	AddrARG    = 2
	AddrTHIS   = 3
	AddrTHAT   = 4
	AddrTempLo = 5
	AddrTempHi = 12
	AddrR13    = 13
	AddrR14    = 14
	AddrR15    = 15
	StaticBase = 16
	Screen     = 0x4000
	Kbd        = 0x6000
)

// ReservedSymbols is the set of predefined names an @-reference may use
// instead of a label or raw literal (spec.md §4.4).
var ReservedSymbols = func() map[string]int {
	m := map[string]int{
		"SP": AddrSP, "LCL": AddrLCL, "ARG": AddrARG,
		"THIS": AddrTHIS, "THAT": AddrTHAT,
		"SCREEN": Screen, "KBD": Kbd,
	}
	for i := 0; i <= 15; i++ {
		m[registerName(i)] = i
	}
	return m
}()

func registerName(i int) string {
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	if i < 10 {
		return "R" + string(digits[i])
	}
	return "R1" + string(digits[i-10])
}

// Dest/Jump/Comp bit tables for the C-instruction encoding (spec.md §8,
// grounded on the Hack codegen translation tables used throughout the
// retrieved Nand2Tetris reference implementations).
var DestTable = map[string]uint16{
	"": 0b000, "M": 0b001, "D": 0b010, "A": 0b100,
	"MD": 0b011, "AM": 0b101, "AD": 0b110, "AMD": 0b111,
}

var JumpTable = map[string]uint16{
	"": 0b000, "JGT": 0b001, "JEQ": 0b010, "JGE": 0b011,
	"JLT": 0b100, "JNE": 0b101, "JLE": 0b110, "JMP": 0b111,
}

var CompTable = map[string]uint16{
	"0": 0b0101010, "1": 0b0111111, "-1": 0b0111010,
	"D": 0b0001100, "A": 0b0110000, "M": 0b1110000,
	"!D": 0b0001101, "!A": 0b0110001, "!M": 0b1110001,
	"-D": 0b0001111, "-A": 0b0110011, "-M": 0b1110011,
	"D+1": 0b0011111, "A+1": 0b0110111, "M+1": 0b1110111,
	"D-1": 0b0001110, "A-1": 0b0110010, "M-1": 0b1110010,
	"D+A": 0b0000010, "D+M": 0b1000010,
	"D-A": 0b0010011, "D-M": 0b1010011,
	"A-D": 0b0000111, "M-D": 0b1000111,
	"D&A": 0b0000000, "D&M": 0b1000000,
	"D|A": 0b0010101, "D|M": 0b1010101,
}

// CInstructionOpcode is the fixed high bits of every C-instruction word
// (spec.md §8 invariant 1). The legacy encoding predating the PDB-era
// pipeline omitted these bits entirely; Config.LegacyEncoding controls
// which is emitted (see DESIGN.md, open question).
const CInstructionOpcode = 0xE000

// MaxAddress is the largest value an A-instruction can hold (15 bits).
const MaxAddress = 1<<15 - 1

package vmc

import "testing"

func TestLowerPushConstantPopLocalFuses(t *testing.T) {
	asm, err := Lower("push constant 7\npop local 2\n", Config{FileTag: "t"})
	if err != nil {
		t.Fatal(err)
	}
	// The fused transfer never touches SP: no "@SP" line should appear
	// before the firmware tail this lowering always appends.
	body := firmwareFreePrefix(asm)
	if containsLine(body, "@SP") {
		t.Errorf("expected no SP traffic in fused push/pop, got:\n%s", body)
	}
	if !containsLine(body, "@LCL") {
		t.Errorf("expected the fused transfer to address LCL, got:\n%s", body)
	}
}

func TestLowerPushConstantAddFuses(t *testing.T) {
	asm, err := Lower("push constant 1\nadd\n", Config{FileTag: "t"})
	if err != nil {
		t.Fatal(err)
	}
	body := firmwareFreePrefix(asm)
	if !containsLine(body, "M=D+M") {
		t.Errorf("expected the in-place increment fusion, got:\n%s", body)
	}
}

func TestLowerUnknownOp(t *testing.T) {
	_, err := Lower("frobnicate\n", Config{})
	if _, ok := err.(*UnknownOpError); !ok {
		t.Fatalf("want *UnknownOpError, got %T (%v)", err, err)
	}
}

func TestLowerFunctionScopesLabels(t *testing.T) {
	asm, err := Lower("function Main.loop 0\nlabel TOP\ngoto TOP\n", Config{FileTag: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if !containsLine(asm, "(Main.loop$TOP)") {
		t.Errorf("want scoped label Main.loop$TOP, got:\n%s", asm)
	}
}

func TestLowerCommentDoesNotInvalidatePeephole(t *testing.T) {
	asm, err := Lower("push constant 5\n// ++pdb 0:1:1\npop local 0\n", Config{FileTag: "t"})
	if err != nil {
		t.Fatal(err)
	}
	body := firmwareFreePrefix(asm)
	if containsLine(body, "@SP") {
		t.Errorf("a pass-through comment between push and pop should not break fusion, got:\n%s", body)
	}
}

func containsLine(text, line string) bool {
	for _, l := range splitLines(text) {
		if l == line {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	return lines
}

// firmwareFreePrefix strips the shared call/return firmware every Lower
// call appends, isolating the lines produced from the test's own VM
// text.
func firmwareFreePrefix(asm string) string {
	lines := splitLines(asm)
	for i, l := range lines {
		if l == "(FW__CALL)" {
			return joinLines(lines[:i])
		}
	}
	return asm
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

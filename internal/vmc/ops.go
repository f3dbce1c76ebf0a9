package vmc

import (
	"fmt"
	"strings"
)

// segReg maps an indirect segment name to its Hack pointer register.
var segReg = map[string]string{
	"local": "LCL", "argument": "ARG", "this": "THIS", "that": "THAT",
}

func (l *lowering) lowerPush(seg, idxStr string) {
	idx := atoi(idxStr)
	startOffset := len(l.out)
	l.emitLoadD(seg, idx)
	l.pushD()
	l.lastPush = &pushTag{startOffset: startOffset, seg: seg, idx: idx}
}

// emitLoadD loads the value named by (seg, idx) into D, without
// touching the operand stack. Shared by lowerPush and the fused
// push→pop transfer.
func (l *lowering) emitLoadD(seg string, idx int) {
	switch seg {
	case "constant":
		if idx < 0 {
			l.emitRaw(fmt.Sprintf("@%d", -idx))
			l.emitRaw("D=-A")
		} else {
			l.emitRaw(fmt.Sprintf("@%d", idx))
			l.emitRaw("D=A")
		}
	case "local", "argument", "this", "that":
		l.emitRaw(fmt.Sprintf("@%d", idx))
		l.emitRaw("D=A")
		l.emitRaw("@" + segReg[seg])
		l.emitRaw("A=D+M")
		l.emitRaw("D=M")
	case "temp":
		l.emitRaw(fmt.Sprintf("@%d", 5+idx))
		l.emitRaw("D=M")
	case "pointer":
		l.emitRaw(fmt.Sprintf("@%d", 3+idx))
		l.emitRaw("D=M")
	case "static":
		l.emitRaw(fmt.Sprintf("@%s.%d", l.curModule, idx))
		l.emitRaw("D=M")
	}
}

func (l *lowering) lowerPop(seg, idxStr string) {
	idx := atoi(idxStr)

	if l.lastPush != nil {
		src := l.lastPush
		l.rewindTo(src.startOffset)
		l.fusedTransfer(src.seg, src.idx, seg, idx)
		l.lastPush = nil
		return
	}

	switch seg {
	case "local", "argument", "this", "that":
		l.computeIndirectAddr(seg, idx, "R13")
		l.popToD()
		l.emitRaw("@R13")
		l.emitRaw("A=M")
		l.emitRaw("M=D")
	case "temp":
		l.popToD()
		l.emitRaw(fmt.Sprintf("@%d", 5+idx))
		l.emitRaw("M=D")
	case "pointer":
		l.popToD()
		l.emitRaw(fmt.Sprintf("@%d", 3+idx))
		l.emitRaw("M=D")
	case "static":
		l.popToD()
		l.emitRaw(fmt.Sprintf("@%s.%d", l.curModule, idx))
		l.emitRaw("M=D")
	}
}

// rewindTo truncates the output back to offset for a peephole rewrite,
// re-appending any pass-through comment lines emitted since offset so
// that PDB markers survive the fusion.
func (l *lowering) rewindTo(offset int) {
	var comments []string
	for _, line := range l.out[offset:] {
		if strings.HasPrefix(line, "//") {
			comments = append(comments, line)
		}
	}
	l.out = append(l.out[:offset], comments...)
}

// computeIndirectAddr computes *segReg[seg] + idx into scratch (R13/R14).
// It overwrites D, so callers compute the address before loading the
// value to store into D.
func (l *lowering) computeIndirectAddr(seg string, idx int, scratch string) {
	l.emitRaw(fmt.Sprintf("@%d", idx))
	l.emitRaw("D=A")
	l.emitRaw("@" + segReg[seg])
	l.emitRaw("D=D+M")
	l.emitRaw("@" + scratch)
	l.emitRaw("M=D")
}

// fusedTransfer implements peephole fusion 1 (spec.md §4.3): a push
// immediately followed by a pop becomes a direct source→D→destination
// transfer that never touches SP. Indirect destinations need their
// address computed before D is overwritten with the source value, so
// the address is resolved into R13 first.
func (l *lowering) fusedTransfer(srcSeg string, srcIdx int, destSeg string, destIdx int) {
	switch destSeg {
	case "local", "argument", "this", "that":
		l.computeIndirectAddr(destSeg, destIdx, "R13")
		l.emitLoadD(srcSeg, srcIdx)
		l.emitRaw("@R13")
		l.emitRaw("A=M")
		l.emitRaw("M=D")
	case "temp":
		l.emitLoadD(srcSeg, srcIdx)
		l.emitRaw(fmt.Sprintf("@%d", 5+destIdx))
		l.emitRaw("M=D")
	case "pointer":
		l.emitLoadD(srcSeg, srcIdx)
		l.emitRaw(fmt.Sprintf("@%d", 3+destIdx))
		l.emitRaw("M=D")
	case "static":
		l.emitLoadD(srcSeg, srcIdx)
		l.emitRaw(fmt.Sprintf("@%s.%d", l.curModule, destIdx))
		l.emitRaw("M=D")
	}
}

func (l *lowering) pushD() {
	l.emitRaw("@SP")
	l.emitRaw("A=M")
	l.emitRaw("M=D")
	l.emitRaw("@SP")
	l.emitRaw("M=M+1")
}

func (l *lowering) popToD() {
	l.emitRaw("@SP")
	l.emitRaw("AM=M-1")
	l.emitRaw("D=M")
}

func (l *lowering) lowerBinary(op string) {
	if op == "add" && l.lastPush != nil && l.lastPush.seg == "constant" {
		// Peephole fusion 2 (spec.md §4.3): push constant k; add becomes
		// an in-place increment of the new top-of-stack.
		k := l.lastPush.idx
		l.rewindTo(l.lastPush.startOffset)
		l.lastPush = nil
		l.emitRaw(fmt.Sprintf("@%d", k))
		l.emitRaw("D=A")
		l.emitRaw("@SP")
		l.emitRaw("A=M-1")
		l.emitRaw("M=D+M")
		return
	}

	l.popToD()
	l.emitRaw("A=A-1")
	switch op {
	case "add":
		l.emitRaw("M=D+M")
	case "sub":
		l.emitRaw("M=M-D")
	case "and":
		l.emitRaw("M=D&M")
	case "or":
		l.emitRaw("M=D|M")
	}
}

func (l *lowering) lowerUnary(op string) {
	l.emitRaw("@SP")
	l.emitRaw("A=M-1")
	if op == "neg" {
		l.emitRaw("M=-M")
	} else {
		l.emitRaw("M=!M")
	}
}

func (l *lowering) lowerCompare(op string) {
	trueLabel := l.freshLabel()
	contLabel := l.freshLabel()

	l.popToD()
	l.emitRaw("A=A-1")
	l.emitRaw("D=M-D")

	var jump string
	switch op {
	case "eq":
		jump = "JEQ"
	case "lt":
		jump = "JLT"
	case "gt":
		jump = "JGT"
	}
	l.emitRaw("@" + trueLabel)
	l.emitRaw("D;" + jump)
	l.emitRaw("@SP")
	l.emitRaw("A=M-1")
	l.emitRaw("M=0")
	l.emitRaw("@" + contLabel)
	l.emitRaw("0;JMP")
	l.emitRaw("(" + trueLabel + ")")
	l.emitRaw("@SP")
	l.emitRaw("A=M-1")
	l.emitRaw("M=-1")
	l.emitRaw("(" + contLabel + ")")
}

func (l *lowering) lowerFunction(name string, numLocals int) {
	l.curFunc = name
	l.curModule = moduleOf(name)
	l.emitRaw("(" + name + ")")
	for i := 0; i < numLocals; i++ {
		l.emitRaw("@SP")
		l.emitRaw("A=M")
		l.emitRaw("M=0")
		l.emitRaw("@SP")
		l.emitRaw("M=M+1")
	}
}

func moduleOf(funcName string) string {
	for i := 0; i < len(funcName); i++ {
		if funcName[i] == '.' {
			return funcName[:i]
		}
	}
	return funcName
}

// emitCall implements spec.md §4.3's call template: load n into R13,
// the callee's address into R14, the return label into D, and jump to
// the shared FW__CALL firmware.
func (l *lowering) emitCall(callee string, numArgs int) {
	retLabel := l.freshLabel()

	l.emitRaw(fmt.Sprintf("@%d", numArgs))
	l.emitRaw("D=A")
	l.emitRaw("@R13")
	l.emitRaw("M=D")

	l.emitRaw("@" + callee)
	l.emitRaw("D=A")
	l.emitRaw("@R14")
	l.emitRaw("M=D")

	l.emitRaw("@" + retLabel)
	l.emitRaw("D=A")

	l.emitRaw("@FW__CALL")
	l.emitRaw("0;JMP")
	l.emitRaw("(" + retLabel + ")")
}

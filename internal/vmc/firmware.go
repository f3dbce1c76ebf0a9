package vmc

// emitFirmware appends the shared call/return implementation once, at
// the end of the assembly (spec.md §4.3). Every `call` jumps into
// FW__CALL with R13=argc, R14=callee address, D=return address; every
// `return` jumps into FW__RETURN.
func (l *lowering) emitFirmware() {
	l.emitRaw("(FW__CALL)")
	// push return address (already in D on entry)
	l.pushD()
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		l.emitRaw("@" + reg)
		l.emitRaw("D=M")
		l.pushD()
	}
	// ARG = SP - 5 - argc(R13)
	l.emitRaw("@SP")
	l.emitRaw("D=M")
	l.emitRaw("@5")
	l.emitRaw("D=D-A")
	l.emitRaw("@R13")
	l.emitRaw("D=D-M")
	l.emitRaw("@ARG")
	l.emitRaw("M=D")
	// LCL = SP
	l.emitRaw("@SP")
	l.emitRaw("D=M")
	l.emitRaw("@LCL")
	l.emitRaw("M=D")
	// jump to callee
	l.emitRaw("@R14")
	l.emitRaw("A=M")
	l.emitRaw("0;JMP")

	l.emitRaw("(FW__RETURN)")
	// R13 = frame = LCL
	l.emitRaw("@LCL")
	l.emitRaw("D=M")
	l.emitRaw("@R13")
	l.emitRaw("M=D")
	// R14 = *(frame-5), the return address
	l.emitRaw("@5")
	l.emitRaw("A=D-A")
	l.emitRaw("D=M")
	l.emitRaw("@R14")
	l.emitRaw("M=D")
	// *ARG = *(SP-1), the return value
	l.emitRaw("@SP")
	l.emitRaw("A=M-1")
	l.emitRaw("D=M")
	l.emitRaw("@ARG")
	l.emitRaw("A=M")
	l.emitRaw("M=D")
	// SP = ARG+1
	l.emitRaw("@ARG")
	l.emitRaw("D=M+1")
	l.emitRaw("@SP")
	l.emitRaw("M=D")
	// THAT = *(frame-1)
	l.emitRaw("@R13")
	l.emitRaw("A=M-1")
	l.emitRaw("D=M")
	l.emitRaw("@THAT")
	l.emitRaw("M=D")
	// THIS = *(frame-2)
	l.emitRaw("@R13")
	l.emitRaw("D=M")
	l.emitRaw("@2")
	l.emitRaw("A=D-A")
	l.emitRaw("D=M")
	l.emitRaw("@THIS")
	l.emitRaw("M=D")
	// ARG = *(frame-3)
	l.emitRaw("@R13")
	l.emitRaw("D=M")
	l.emitRaw("@3")
	l.emitRaw("A=D-A")
	l.emitRaw("D=M")
	l.emitRaw("@ARG")
	l.emitRaw("M=D")
	// LCL = *(frame-4)
	l.emitRaw("@R13")
	l.emitRaw("D=M")
	l.emitRaw("@4")
	l.emitRaw("A=D-A")
	l.emitRaw("D=M")
	l.emitRaw("@LCL")
	l.emitRaw("M=D")
	// jump to return address
	l.emitRaw("@R14")
	l.emitRaw("A=M")
	l.emitRaw("0;JMP")
}

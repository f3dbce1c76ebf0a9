// Package embedos holds a minimal, fixed VM-text stand-in for the Jack
// standard library (spec.md §1 places the real OS out of scope as an
// external collaborator). It exists so the Linker and VM Compiler can
// be exercised end-to-end — Sys.init, a bump allocator, a minimal
// String, and Math.multiply/divide — without requiring external .jack
// sources. A real OS library directory supplied via the driver's -L
// flag always takes precedence; this is a fallback fixture, not a
// reimplementation target (spec.md §1 Non-goal still stands for the
// full library).
package embedos

// Files maps a synthetic path to VM text, the same shape the Linker
// expects from a compiled .jack file.
var Files = map[string]string{
	"Sys.vm": sysVm,
	"Memory.vm": memoryVm,
	"String.vm": stringVm,
	"Math.vm": mathVm,
}

const sysVm = `function Sys.init 0
call Main.main 0
pop temp 0
call Sys.halt 0
pop temp 0
return
function Sys.halt 0
label LOOP
goto LOOP
`

const memoryVm = `function Memory.alloc 1
push static 0
if-goto HAVE_BASE
push constant 2048
pop static 0
label HAVE_BASE
push static 0
pop local 0
push local 0
push argument 0
add
pop static 0
push local 0
return
function Memory.deAlloc 0
push constant 0
return
`

const stringVm = `function String.new 1
push argument 0
push constant 2
add
call Memory.alloc 1
pop local 0
push local 0
pop pointer 1
push argument 0
pop that 0
push local 0
push constant 1
add
pop pointer 1
push constant 0
pop that 0
push local 0
return
function String.appendChar 1
push argument 0
push constant 1
add
pop pointer 1
push that 0
pop local 0
push argument 0
push constant 2
add
push local 0
add
pop pointer 1
push argument 1
pop that 0
push argument 0
push constant 1
add
pop pointer 1
push local 0
push constant 1
add
pop that 0
push argument 0
return
`

// Math.multiply is the standard Nand2Tetris shift-add algorithm: sum
// argument0 shifted left by i for every bit i that is set in argument1.
// Math.divide is a repeated-subtraction reduction valid for
// non-negative operands only — a simplification appropriate to this
// fixture's scope (a full shift-subtract divide with overflow handling
// belongs to the real Jack OS, out of scope per spec.md §1).
const mathVm = `function Math.multiply 4
push constant 0
pop local 0
push argument 0
pop local 1
push constant 1
pop local 2
push constant 0
pop local 3
label LOOP
push local 3
push constant 16
lt
not
if-goto END
push argument 1
push local 2
and
if-goto BITSET
goto CONTINUE
label BITSET
push local 0
push local 1
add
pop local 0
label CONTINUE
push local 1
push local 1
add
pop local 1
push local 2
push local 2
add
pop local 2
push local 3
push constant 1
add
pop local 3
goto LOOP
label END
push local 0
return
function Math.divide 1
push constant 0
pop local 0
label LOOP
push argument 0
push argument 1
lt
if-goto END
push argument 0
push argument 1
sub
pop argument 0
push local 0
push constant 1
add
pop local 0
goto LOOP
label END
push local 0
return
`

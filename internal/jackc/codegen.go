// Package jackc is the Jack front end: it lexes and parses one class
// file, resolves identifiers against a two-level symbol table, and
// emits VM text (spec.md §4.1).
package jackc

import (
	"fmt"
	"strings"

	"github.com/hackc-toolchain/hackc/internal/pdb"
)

// SyntaxError wraps the accumulated parser diagnostics for one file.
type SyntaxError struct {
	Path   string
	Errors []string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %d syntax error(s): %s", e.Path, len(e.Errors), strings.Join(e.Errors, "; "))
}

// ResolutionError is the non-fatal "unknown identifier used as a value"
// error of spec.md §7: it sets a stage failure flag and forfeits code
// output, but keeps going to find later resolution errors in the same
// file.
type ResolutionError struct {
	Path string
	Name string
	Line int
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s:%d: cannot resolve identifier %q", e.Path, e.Line, e.Name)
}

type compiler struct {
	path      string
	className string
	symtab    *SymbolTable
	pdb       *pdb.PDB
	fileIdx   int

	lines      []string
	instrCount int
	labelScope string // current subroutine's fully-qualified name, used as its VM function name

	resolutionErrs []error
}

// Compile translates one Jack class file to VM text. db is the PDB the
// caller is threading through the whole pipeline; it is mutated in
// place with this file's symbols.
func Compile(source []byte, path string, db *pdb.PDB) (string, error) {
	lex := NewLexer(source)
	toks, lexErr := lex.Tokenize()
	if lexErr != nil {
		return "", &SyntaxError{Path: path, Errors: lex.errors}
	}

	parser := NewParser(toks)
	class := parser.ParseClass()
	if errs := parser.Errors(); len(errs) > 0 {
		return "", &SyntaxError{Path: path, Errors: errs}
	}

	c := &compiler{
		path:      path,
		className: class.Name,
		symtab:    NewSymbolTable(),
		pdb:       db,
		fileIdx:   db.AddFile(path, pdb.FileJack),
	}

	for _, member := range class.Nodes {
		if member.Kind == NClassVarDec {
			c.defineClassVarDec(member)
		}
	}
	for _, member := range class.Nodes {
		if member.Kind == NSubroutineDec {
			c.compileSubroutine(member)
		}
	}

	if len(c.resolutionErrs) > 0 {
		return "", c.resolutionErrs[0]
	}
	return strings.Join(c.lines, "\n") + "\n", nil
}

func typeOf(typeName string) VarType {
	switch typeName {
	case "int", "char", "boolean":
		return VarType{Base: typeName}
	default:
		return VarType{Base: "instance", ClassName: typeName}
	}
}

func pdbVarType(t VarType) int {
	switch t.Base {
	case "int":
		return pdb.TypeInt
	case "char":
		return pdb.TypeChar
	case "boolean":
		return pdb.TypeBool
	default:
		return pdb.TypeInstance
	}
}

func pdbStorageClass(k VarKind) int {
	switch k {
	case KindLocal:
		return pdb.StorageLocal
	case KindField:
		return pdb.StorageField
	case KindStatic:
		return pdb.StorageStatic
	default:
		return pdb.StorageArgument
	}
}

// define records a symbol in the table and appends its PDB Var record
// (spec.md §4.1 "PDB emission").
func (c *compiler) define(name string, kind VarKind, typ VarType) SymEntry {
	e := c.symtab.Define(name, kind, typ)
	c.pdb.AddVar(c.className+"."+name, pdbStorageClass(kind), pdbVarType(typ), e.Index, typ.ClassName, pdb.FileJack)
	return e
}

func (c *compiler) defineClassVarDec(n *Node) {
	kind := KindStatic
	if n.Kind2 == "field" {
		kind = KindField
	}
	typ := typeOf(n.Type)
	for _, v := range n.Nodes {
		c.define(v.Name, kind, typ)
	}
}

func (c *compiler) emit(line string) {
	c.lines = append(c.lines, line)
	c.instrCount++
}

func (c *compiler) markPDB(line, col int) {
	c.lines = append(c.lines, fmt.Sprintf("// ++pdb %d:%d:%d", c.fileIdx, line, col))
}

func (c *compiler) compileSubroutine(sub *Node) {
	c.symtab.StartSubroutine()
	c.labelScope = c.className + "." + sub.Name

	if sub.Kind2 == "method" {
		c.define("this", KindArgument, VarType{Base: "instance", ClassName: c.className})
	}
	for _, param := range sub.Nodes {
		c.define(param.Name, KindArgument, typeOf(param.Type))
	}

	locals := sub.Else.Nodes // parser stashes the varDec list in Else
	for _, local := range locals {
		c.define(local.Name, KindLocal, typeOf(local.Type))
	}

	c.pdb.AddFunc(c.labelScope, pdb.FileJack)
	c.emit(fmt.Sprintf("function %s %d", c.labelScope, len(locals)))

	switch sub.Kind2 {
	case "method":
		c.emit("push argument 0")
		c.emit("pop pointer 0")
	case "constructor":
		c.emit(fmt.Sprintf("push constant %d", c.symtab.FieldCount()))
		c.emit("call Memory.alloc 1")
		c.emit("pop pointer 0")
	}

	c.compileStatements(sub.Body.Nodes)
}

func (c *compiler) compileStatements(stmts []*Node) {
	for _, s := range stmts {
		c.markPDB(s.Line, s.Col)
		switch s.Kind {
		case NLet:
			c.compileLet(s)
		case NIf:
			c.compileIf(s)
		case NWhile:
			c.compileWhile(s)
		case NDo:
			c.compileExpr(s.X)
			c.emit("pop temp 0")
		case NReturn:
			if s.X != nil {
				c.compileExpr(s.X)
			} else {
				c.emit("push constant 0")
			}
			c.emit("return")
		}
	}
}

func (c *compiler) compileLet(n *Node) {
	if n.X != nil {
		// let arr[expr1] = expr2
		c.emitVarPush(n.Name, n.Line)
		c.compileExpr(n.X)
		c.emit("add")
		c.compileExpr(n.Y)
		c.emit("pop temp 0")
		c.emit("pop pointer 1")
		c.emit("push temp 0")
		c.emit("pop that 0")
		return
	}
	c.compileExpr(n.Y)
	c.emitVarPop(n.Name, n.Line)
}

func (c *compiler) compileIf(n *Node) {
	id := c.instrCount
	trueL := fmt.Sprintf("IFTRUE_%d", id)
	falseL := fmt.Sprintf("IFFALSE_%d", id)
	endL := fmt.Sprintf("IFEND_%d", id)

	c.compileExpr(n.X)
	c.emit("if-goto " + trueL)
	c.emit("goto " + falseL)
	c.emit("label " + trueL)
	c.compileStatements(n.Body.Nodes)
	if n.Else != nil {
		c.emit("goto " + endL)
		c.emit("label " + falseL)
		c.compileStatements(n.Else.Nodes)
		c.emit("label " + endL)
	} else {
		c.emit("label " + falseL)
	}
}

func (c *compiler) compileWhile(n *Node) {
	id := c.instrCount
	whileL := fmt.Sprintf("WHILE_%d", id)
	endL := fmt.Sprintf("ENDWHILE_%d", id)

	c.emit("label " + whileL)
	c.compileExpr(n.X)
	c.emit("not")
	c.emit("if-goto " + endL)
	c.compileStatements(n.Body.Nodes)
	c.emit("goto " + whileL)
	c.emit("label " + endL)
}

var binOpEmission = map[string]string{
	"+": "add", "-": "sub", "&": "and", "|": "or",
	"<": "lt", ">": "gt", "=": "eq",
}

func (c *compiler) compileExpr(n *Node) {
	switch n.Kind {
	case NBinaryExpr:
		c.compileExpr(n.X)
		c.compileExpr(n.Y)
		switch n.Name {
		case "*":
			c.emit("call Math.multiply 2")
		case "/":
			c.emit("call Math.divide 2")
		default:
			c.emit(binOpEmission[n.Name])
		}
	case NUnaryExpr:
		c.compileExpr(n.X)
		if n.Name == "-" {
			c.emit("neg")
		} else {
			c.emit("not")
		}
	case NGroupExpr:
		c.compileExpr(n.X)
	case NIntConst:
		c.emit(fmt.Sprintf("push constant %d", n.IntVal))
	case NStringConst:
		c.compileStringConst(n.StrVal)
	case NKeywordConst:
		switch n.Name {
		case "true":
			c.emit("push constant 0")
			c.emit("not")
		case "false", "null":
			c.emit("push constant 0")
		case "this":
			c.emit("push pointer 0")
		}
	case NVarTerm:
		if n.X != nil {
			c.emitVarPush(n.Name, n.Line)
			c.compileExpr(n.X)
			c.emit("add")
			c.emit("pop pointer 1")
			c.emit("push that 0")
		} else {
			c.emitVarPush(n.Name, n.Line)
		}
	case NCallExpr:
		c.compileCall(n)
	}
}

func (c *compiler) compileStringConst(s string) {
	c.emit(fmt.Sprintf("push constant %d", len(s)))
	c.emit("call String.new 1")
	for i := 0; i < len(s); i++ {
		c.emit(fmt.Sprintf("push constant %d", s[i]))
		c.emit("call String.appendChar 2")
	}
}

// compileCall implements the three-rule dispatch of spec.md §4.1.
func (c *compiler) compileCall(n *Node) {
	if n.Kind2 == "bare" {
		// Rule 3: bare b(args) inside class C.
		c.emit("push pointer 0")
		for _, arg := range n.Nodes {
			c.compileExpr(arg)
		}
		c.emit(fmt.Sprintf("call %s.%s %d", c.className, n.Type, len(n.Nodes)+1))
		return
	}

	// qualified: n.Name is the written qualifier, n.Type is the method name.
	if entry, ok := c.symtab.Resolve(n.Name); ok && entry.Type.Base == "instance" {
		// Rule 1: qualifier is a variable of instance type.
		c.emitVarPush(n.Name, n.Line)
		for _, arg := range n.Nodes {
			c.compileExpr(arg)
		}
		c.emit(fmt.Sprintf("call %s.%s %d", entry.Type.ClassName, n.Type, len(n.Nodes)+1))
		return
	}
	// Rule 2: qualifier is not a known symbol — treat as a class name.
	for _, arg := range n.Nodes {
		c.compileExpr(arg)
	}
	c.emit(fmt.Sprintf("call %s.%s %d", n.Name, n.Type, len(n.Nodes)))
}

func (c *compiler) emitVarPush(name string, line int) {
	seg, idx, ok := c.resolveSegment(name, line)
	if !ok {
		return
	}
	c.emit(fmt.Sprintf("push %s %d", seg, idx))
}

func (c *compiler) emitVarPop(name string, line int) {
	seg, idx, ok := c.resolveSegment(name, line)
	if !ok {
		return
	}
	c.emit(fmt.Sprintf("pop %s %d", seg, idx))
}

func (c *compiler) resolveSegment(name string, line int) (string, int, bool) {
	entry, ok := c.symtab.Resolve(name)
	if !ok {
		c.resolutionErrs = append(c.resolutionErrs, &ResolutionError{Path: c.path, Name: name, Line: line})
		return "", 0, false
	}
	switch entry.Kind {
	case KindField:
		return "this", entry.Index, true
	case KindStatic:
		return "static", entry.Index, true
	case KindLocal:
		return "local", entry.Index, true
	default:
		return "argument", entry.Index, true
	}
}

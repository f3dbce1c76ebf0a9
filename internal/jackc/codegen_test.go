package jackc

import (
	"strings"
	"testing"

	"github.com/hackc-toolchain/hackc/internal/pdb"
)

func TestCompileSimpleFunction(t *testing.T) {
	src := `
class Main {
    function void main() {
        var int x;
        let x = 1 + 2;
        return;
    }
}
`
	db := pdb.New()
	vm, err := Compile([]byte(src), "Main.jack", db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"function Main.main 1",
		"push constant 1",
		"push constant 2",
		"add",
	}
	for _, line := range want {
		if !strings.Contains(vm, line) {
			t.Errorf("expected VM output to contain %q, got:\n%s", line, vm)
		}
	}
}

func TestCompileMethodPrelude(t *testing.T) {
	src := `
class Point {
    field int x, y;
    method int getX() {
        return x;
    }
}
`
	db := pdb.New()
	vm, err := Compile([]byte(src), "Point.jack", db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, line := range []string{"push argument 0", "pop pointer 0", "push this 0"} {
		if !strings.Contains(vm, line) {
			t.Errorf("expected method prelude to contain %q, got:\n%s", line, vm)
		}
	}
}

func TestCompileConstructorPrelude(t *testing.T) {
	src := `
class Point {
    field int x, y;
    constructor Point new() {
        return this;
    }
}
`
	db := pdb.New()
	vm, err := Compile([]byte(src), "Point.jack", db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, line := range []string{"push constant 2", "call Memory.alloc 1", "pop pointer 0", "push pointer 0"} {
		if !strings.Contains(vm, line) {
			t.Errorf("expected constructor prelude to contain %q, got:\n%s", line, vm)
		}
	}
}

func TestCompileUnresolvedIdentifierIsResolutionError(t *testing.T) {
	src := `
class Main {
    function void main() {
        let x = 1;
        return;
    }
}
`
	_, err := Compile([]byte(src), "Main.jack", pdb.New())
	if _, ok := err.(*ResolutionError); !ok {
		t.Fatalf("want *ResolutionError, got %T (%v)", err, err)
	}
}

func TestCompileSyntaxError(t *testing.T) {
	src := `class Main { function void main( { return; } }`
	_, err := Compile([]byte(src), "Main.jack", pdb.New())
	if _, ok := err.(*SyntaxError); !ok {
		t.Fatalf("want *SyntaxError, got %T (%v)", err, err)
	}
}

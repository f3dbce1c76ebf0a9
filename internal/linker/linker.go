// Package linker implements the VM-level link/tree-shake stage
// (spec.md §4.2): partition every input .vm file into per-function
// chunks, then emit only the chunks reachable from Sys.init by DFS.
package linker

import (
	"fmt"
	"sort"
	"strings"
)

// Chunk is one linker record: a function's source lines plus the names
// of the functions it calls, in encounter order (spec.md §3).
type Chunk struct {
	Name  string
	Lines []string
	Calls []string
}

// UnresolvedExternalError is the fatal error of spec.md §7: a `call`
// target that no loaded chunk defines.
type UnresolvedExternalError struct {
	Caller string
	Callee string
}

func (e *UnresolvedExternalError) Error() string {
	return fmt.Sprintf("unresolved external: %s calls undefined function %s", e.Caller, e.Callee)
}

// RedefinitionError is raised when two input files define the same
// function name.
type RedefinitionError struct {
	Name string
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("duplicate function definition: %s", e.Name)
}

// Linker accumulates chunks from any number of .vm inputs, then
// resolves a root into one merged VM text.
type Linker struct {
	chunks map[string]*Chunk
	order  []string // insertion order, for stable diagnostic dumps
}

func New() *Linker {
	return &Linker{chunks: make(map[string]*Chunk)}
}

// AddFile partitions one VM text's lines into chunks keyed by the most
// recent `function <name> <locals>` header (spec.md §4.2). Lines before
// the first function header (typically only PDB/comment lines) are
// silently dropped — the Jack front end never emits top-level
// statements outside a function.
func (l *Linker) AddFile(text string) error {
	var cur *Chunk
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) > 0 && fields[0] == "function" {
			name := fields[1]
			if _, exists := l.chunks[name]; exists {
				return &RedefinitionError{Name: name}
			}
			cur = &Chunk{Name: name}
			l.chunks[name] = cur
			l.order = append(l.order, name)
		}
		if cur == nil {
			continue
		}
		cur.Lines = append(cur.Lines, line)
		if len(fields) > 0 && fields[0] == "call" {
			cur.Calls = append(cur.Calls, fields[1])
		}
	}
	return nil
}

// Link performs a depth-first traversal from root, emitting each
// chunk's lines the first time it is visited. Emission order follows
// the DFS; the sorted view of the chunks is only for diagnostics (see
// ChunkNames). The PDB `// ++pdb`
// markers travel inside chunk lines, so correctness of the source map
// does not depend on emission order.
func (l *Linker) Link(root string) (string, error) {
	visited := make(map[string]bool)
	var out []string

	var visit func(name string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		chunk, ok := l.chunks[name]
		if !ok {
			return nil // caller reports the unresolved call with its own context
		}
		visited[name] = true
		out = append(out, chunk.Lines...)
		for _, callee := range chunk.Calls {
			if _, ok := l.chunks[callee]; !ok {
				return &UnresolvedExternalError{Caller: name, Callee: callee}
			}
			if err := visit(callee); err != nil {
				return err
			}
		}
		return nil
	}

	if _, ok := l.chunks[root]; !ok {
		return "", &UnresolvedExternalError{Caller: "<root>", Callee: root}
	}
	if err := visit(root); err != nil {
		return "", err
	}
	return strings.Join(out, "\n") + "\n", nil
}

// ChunkNames returns all loaded chunk names in sorted order, for
// diagnostic dumps (spec.md §4.2: "chunks are stored in a key-ordered
// mapping").
func (l *Linker) ChunkNames() []string {
	names := make([]string, 0, len(l.chunks))
	for name := range l.chunks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

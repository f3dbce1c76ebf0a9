package linker

import "testing"

func TestLinkTreeShakesUnreachableChunks(t *testing.T) {
	l := New()
	if err := l.AddFile("function Sys.init 0\ncall Main.main 0\nreturn\n"); err != nil {
		t.Fatal(err)
	}
	if err := l.AddFile("function Main.main 0\nreturn\nfunction Main.unused 0\nreturn\n"); err != nil {
		t.Fatal(err)
	}

	merged, err := l.Link("Sys.init")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsFunction(merged, "Sys.init") || !containsFunction(merged, "Main.main") {
		t.Errorf("expected reachable chunks in output, got:\n%s", merged)
	}
	if containsFunction(merged, "Main.unused") {
		t.Errorf("expected Main.unused to be tree-shaken out, got:\n%s", merged)
	}
}

func TestLinkUnresolvedExternal(t *testing.T) {
	l := New()
	if err := l.AddFile("function Sys.init 0\ncall Ghost.boo 0\nreturn\n"); err != nil {
		t.Fatal(err)
	}
	_, err := l.Link("Sys.init")
	ue, ok := err.(*UnresolvedExternalError)
	if !ok {
		t.Fatalf("want *UnresolvedExternalError, got %T (%v)", err, err)
	}
	if ue.Callee != "Ghost.boo" {
		t.Errorf("want callee Ghost.boo, got %s", ue.Callee)
	}
}

func TestAddFileRejectsDuplicateDefinition(t *testing.T) {
	l := New()
	if err := l.AddFile("function Main.main 0\nreturn\n"); err != nil {
		t.Fatal(err)
	}
	err := l.AddFile("function Main.main 0\nreturn\n")
	if _, ok := err.(*RedefinitionError); !ok {
		t.Fatalf("want *RedefinitionError, got %T (%v)", err, err)
	}
}

func TestChunkNamesSorted(t *testing.T) {
	l := New()
	l.AddFile("function Zeta.run 0\nreturn\nfunction Alpha.run 0\nreturn\n")
	names := l.ChunkNames()
	if len(names) != 2 || names[0] != "Alpha.run" || names[1] != "Zeta.run" {
		t.Errorf("want sorted [Alpha.run Zeta.run], got %v", names)
	}
}

func containsFunction(vmText, name string) bool {
	return contains(vmText, "function "+name+" ")
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

package pdb

import (
	"encoding/json"
	"testing"
)

func TestAddFileReturnsIndex(t *testing.T) {
	p := New()
	i0 := p.AddFile("Main.jack", FileJack)
	i1 := p.AddFile("Main.vm", FileVm)
	if i0 != 0 || i1 != 1 {
		t.Errorf("want indices 0,1; got %d,%d", i0, i1)
	}
}

func TestBackpatchFuncSetsAddress(t *testing.T) {
	p := New()
	p.AddFunc("Main.main", FileJack)
	p.BackpatchFunc("Main.main", 42)

	if len(p.Symbols) != 1 {
		t.Fatalf("want 1 symbol, got %d", len(p.Symbols))
	}
	if p.Symbols[0].Address != 42 {
		t.Errorf("want address 42, got %d", p.Symbols[0].Address)
	}
}

func TestBackpatchFuncIgnoresUnknownName(t *testing.T) {
	p := New()
	p.BackpatchFunc("Never.declared", 7) // must not panic
}

func TestBackpatchSysHaltSetsHaltAddr(t *testing.T) {
	p := New()
	p.AddFunc("Sys.halt", FileVm)
	p.BackpatchFunc("Sys.halt", 100)
	if p.HaltAddr != 100 {
		t.Errorf("want HaltAddr 100, got %d", p.HaltAddr)
	}
}

func TestMarshalJSONRoundTrips(t *testing.T) {
	p := New()
	p.AddFile("Main.jack", FileJack)
	p.AddVar("Main.x", StorageLocal, TypeInt, 0, "", FileJack)
	p.AddFunc("Main.main", FileJack)
	p.BackpatchFunc("Main.main", 10)
	p.AddSourceMapEntry(0, 3, 5, 10)

	data, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var round struct {
		Files     []FileRecord     `json:"files"`
		Symbols   []Symbol         `json:"symbols"`
		SourceMap []SourceMapEntry `json:"source_map"`
	}
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(round.Files) != 1 || round.Files[0].Path != "Main.jack" {
		t.Errorf("files did not round-trip: %+v", round.Files)
	}
	if len(round.Symbols) != 2 {
		t.Errorf("want 2 symbols, got %d", len(round.Symbols))
	}
	if len(round.SourceMap) != 1 || round.SourceMap[0].RomAddr != 10 {
		t.Errorf("source map did not round-trip: %+v", round.SourceMap)
	}
}

package data

import (
	"path/filepath"
	"testing"
)

func TestLoadShippedCatalog(t *testing.T) {
	tbl, err := LoadPrototypeTable(filepath.Join("..", "..", "data", "yaml", "prototypes.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := tbl.Get("mesh-prototype")
	if p == nil || !p.Preview || p.ARScale != 1 {
		t.Fatalf("mesh-prototype = %+v", p)
	}
	if tbl.Count() != len(tbl.All()) {
		t.Fatalf("count/all mismatch")
	}
}

func TestParseKeepsOrderAndDefaultsScale(t *testing.T) {
	tbl, err := ParsePrototypeTable([]byte(`
prototypes:
  - name: b
  - name: a
    ar_scale: 2
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	all := tbl.All()
	if all[0].Name != "b" || all[1].Name != "a" {
		t.Fatalf("order = %s,%s", all[0].Name, all[1].Name)
	}
	if all[0].ARScale != 1 || all[1].ARScale != 2 {
		t.Fatalf("scales = %v,%v", all[0].ARScale, all[1].ARScale)
	}
}

func TestParseRejectsBadCatalog(t *testing.T) {
	for name, doc := range map[string]string{
		"duplicate": "prototypes:\n  - name: a\n  - name: a\n",
		"unnamed":   "prototypes:\n  - label: x\n",
		"negative":  "prototypes:\n  - name: a\n    ar_scale: -1\n",
		"syntax":    "prototypes: [",
	} {
		if _, err := ParsePrototypeTable([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

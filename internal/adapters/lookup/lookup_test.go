package lookup

import (
	"path/filepath"
	"strings"
	"testing"

	perr "socstream/internal/platform/errors"
	kit "socstream/internal/platform/testkit"

	"github.com/google/go-cmp/cmp"
)

func TestLoadCodeTable(t *testing.T) {
	csv := "\ufeffsoc5,onet,extra\n" +
		"43-3021,43-3021.02,x\n" +
		"15-1132,15-1132.00,y\n" +
		"15-1133,43-3021.02,z\n"

	ct, err := LoadCodeTable(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCodeTable: %v", err)
	}
	if ct.Len() != 2 {
		t.Fatalf("Len = %d", ct.Len())
	}
	if v, _ := ct.Lookup("43-3021.02"); v != "15-1133" {
		t.Fatalf("later duplicate should win, got %q", v)
	}
	if v, ok := ct.Lookup("15-1132.00"); !ok || v != "15-1132" {
		t.Fatalf("Lookup = %q, %v", v, ok)
	}
}

func TestLoadCodeTable_Errors(t *testing.T) {
	tests := []struct {
		name, in, msg string
	}{
		{"empty", "", "missing header row"},
		{"no soc5", "onet,other\nA,B\n", "header has no soc5 column"},
		{"short row", "onet,soc5\nA\n", "line 2: missing column soc5"},
	}
	for _, tt := range tests {
		_, err := LoadCodeTable(strings.NewReader(tt.in))
		if !perr.IsCode(err, perr.ErrorCodeConfig) {
			t.Fatalf("%s: code = %v (%v)", tt.name, perr.CodeOf(err), err)
		}
		kit.MustContain(t, err.Error(), tt.msg)
	}
}

func TestLoadHierarchy(t *testing.T) {
	csv := "level,child,parent\n" +
		"5,43-3021,43-3020\n" +
		"4,43-3020,43-3000\n" +
		"3,43-3000,43-0000\n"

	h, err := LoadHierarchy(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadHierarchy: %v", err)
	}
	if diff := cmp.Diff([]int{5, 4, 3, 2, 1}, h.Levels()); diff != "" {
		t.Fatalf("levels should be pre-seeded (-want +got):\n%s", diff)
	}
	if got, ok := h.Ancestor(5, 2, "43-3021"); !ok || got != "43-0000" {
		t.Fatalf("Ancestor = %q, %v", got, ok)
	}
	if h.Len() != 3 {
		t.Fatalf("Len = %d", h.Len())
	}
}

func TestLoadHierarchy_BadLevel(t *testing.T) {
	tests := []struct {
		name, in string
		line     int
		msg      string
	}{
		{"not an int", "level,child,parent\n5,a,b\nfive,c,d\n", 3, `level "five" is not an integer`},
		{"out of range", "level,child,parent\n6,a,b\n", 2, "level 6 outside 1..5"},
		{"zero", "level,child,parent\n5,a,b\n4,b,c\n0,c,d\n", 4, "level 0 outside 1..5"},
	}
	for _, tt := range tests {
		_, err := LoadHierarchy(strings.NewReader(tt.in))
		if !perr.IsCode(err, perr.ErrorCodeConfig) {
			t.Fatalf("%s: code = %v", tt.name, perr.CodeOf(err))
		}
		if perr.LineOf(err) != tt.line {
			t.Fatalf("%s: line = %d, want %d", tt.name, perr.LineOf(err), tt.line)
		}
		kit.MustContain(t, err.Error(), tt.msg)
	}
}

func TestLoadFiles(t *testing.T) {
	codes := kit.WriteFile(t, "map_onet_soc.csv", []byte("onet,soc5\n15-1131.00,43-3021\n"))
	hier := kit.WriteFile(t, "soc_hierarchy.csv", []byte("level,child,parent\n5,43-3021,43-3000\n"))

	ct, h, err := LoadFiles(codes, hier)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if ct.Len() != 1 || h.Len() != 1 {
		t.Fatalf("sizes = %d, %d", ct.Len(), h.Len())
	}

	_, _, err = LoadFiles(filepath.Join(t.TempDir(), "missing.csv"), hier)
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing codes file: %v", err)
	}

	bad := kit.WriteFile(t, "bad.csv", []byte("level,child,parent\n9,a,b\n"))
	_, _, err = LoadFiles(codes, bad)
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("bad hierarchy: %v", err)
	}
	kit.MustContain(t, err.Error(), "bad.csv")
}

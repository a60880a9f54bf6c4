// Package soc resolves occupation codes: onet to SOC5 through a flat code
// table, then SOC5 to coarser levels through a per-level parent hierarchy.
// Both tables are immutable once built and safe for concurrent readers
package soc

import (
	"sort"

	perr "socstream/internal/platform/errors"
)

// Hierarchy levels used by the pipeline
const (
	LevelMin  = 1
	LevelMax  = 5
	LevelSOC5 = 5
	LevelSOC2 = 2
)

// CodeTable maps an onet code to its SOC5 code
type CodeTable struct {
	m map[string]string
}

// NewCodeTable copies m into a new table
func NewCodeTable(m map[string]string) CodeTable {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return CodeTable{m: c}
}

// Lookup returns the SOC5 code for onet
func (t CodeTable) Lookup(onet string) (string, bool) {
	v, ok := t.m[onet]
	return v, ok
}

// Len reports the number of entries
func (t CodeTable) Len() int { return len(t.m) }

// Hierarchy maps level -> child -> parent, where parent sits at level-1
type Hierarchy struct {
	levels map[int]map[string]string
}

// NewHierarchy deep-copies levels into a new hierarchy
func NewHierarchy(levels map[int]map[string]string) Hierarchy {
	c := make(map[int]map[string]string, len(levels))
	for lvl, edges := range levels {
		e := make(map[string]string, len(edges))
		for child, parent := range edges {
			e[child] = parent
		}
		c[lvl] = e
	}
	return Hierarchy{levels: c}
}

// Parent returns the parent of child in the given level's mapping
func (h Hierarchy) Parent(level int, child string) (string, bool) {
	p, ok := h.levels[level][child]
	return p, ok
}

// HasLevel reports whether level has a mapping, even an empty one
func (h Hierarchy) HasLevel(level int) bool {
	_, ok := h.levels[level]
	return ok
}

// Levels lists the known levels, finest first
func (h Hierarchy) Levels() []int {
	out := make([]int, 0, len(h.levels))
	for lvl := range h.levels {
		out = append(out, lvl)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Len reports the number of edges across all levels
func (h Hierarchy) Len() int {
	n := 0
	for _, edges := range h.levels {
		n += len(edges)
	}
	return n
}

// Ancestor walks code from inLevel up to outLevel, one parent hop per level
// (inLevel, inLevel-1, ..., outLevel+1). The first missing hop ends the walk
// with ok=false. inLevel == outLevel returns code unchanged; inLevel < outLevel
// has no ancestor
func (h Hierarchy) Ancestor(inLevel, outLevel int, code string) (string, bool) {
	if inLevel < outLevel {
		return "", false
	}
	for level := inLevel; level > outLevel; level-- {
		parent, ok := h.levels[level][code]
		if !ok {
			return "", false
		}
		code = parent
	}
	return code, true
}

// Resolution is the outcome of resolving one onet code
type Resolution struct {
	Soc5 string
	Soc2 *string
}

// Resolver pairs a code table with a hierarchy
type Resolver struct {
	codes     CodeTable
	hierarchy Hierarchy
	from, to  int
}

// NewResolver builds a resolver that walks from level 5 to level 2
func NewResolver(codes CodeTable, h Hierarchy) *Resolver {
	return &Resolver{codes: codes, hierarchy: h, from: LevelSOC5, to: LevelSOC2}
}

// WithLevels returns a copy that walks from one level to another.
// from must not be below to
func (r *Resolver) WithLevels(from, to int) (*Resolver, error) {
	if from < to || from < LevelMin || from > LevelMax || to < LevelMin || to > LevelMax {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "bad level walk %d -> %d", from, to)
	}
	c := *r
	c.from, c.to = from, to
	return &c, nil
}

// Resolve maps onet to its SOC5 code and, when the hierarchy allows, its SOC2
// ancestor. An onet missing from the code table is an UnresolvedCode error;
// a gap in the hierarchy only leaves Soc2 nil
func (r *Resolver) Resolve(onet string) (Resolution, error) {
	soc5, ok := r.codes.Lookup(onet)
	if !ok {
		return Resolution{}, perr.WithField(perr.Unresolvedf("onet %q not in code table", onet), "onet")
	}
	res := Resolution{Soc5: soc5}
	if soc2, ok := r.hierarchy.Ancestor(r.from, r.to, soc5); ok {
		res.Soc2 = &soc2
	}
	return res, nil
}

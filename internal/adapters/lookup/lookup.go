// Package lookup loads the occupation code tables from CSV files
package lookup

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"socstream/internal/core/soc"
	perr "socstream/internal/platform/errors"
)

// LoadCodeTable reads an onet,soc5 CSV with a header row. Columns are found
// by name; a repeated onet keeps the last soc5
func LoadCodeTable(r io.Reader) (soc.CodeTable, error) {
	m := map[string]string{}
	err := eachRow(r, []string{"onet", "soc5"}, func(_ int, v []string) error {
		m[v[0]] = v[1]
		return nil
	})
	if err != nil {
		return soc.CodeTable{}, perr.WithOp(err, "load code table")
	}
	return soc.NewCodeTable(m), nil
}

// LoadHierarchy reads a level,child,parent CSV with a header row. Levels
// 1 through 5 always exist, possibly empty
func LoadHierarchy(r io.Reader) (soc.Hierarchy, error) {
	levels := make(map[int]map[string]string, soc.LevelMax)
	for l := soc.LevelMin; l <= soc.LevelMax; l++ {
		levels[l] = map[string]string{}
	}
	err := eachRow(r, []string{"level", "child", "parent"}, func(line int, v []string) error {
		lvl, err := strconv.Atoi(strings.TrimSpace(v[0]))
		if err != nil {
			return perr.WithLine(perr.Wrapf(err, perr.ErrorCodeConfig, "level %q is not an integer", v[0]), line)
		}
		edges, ok := levels[lvl]
		if !ok {
			return perr.WithLine(perr.Configf("level %d outside %d..%d", lvl, soc.LevelMin, soc.LevelMax), line)
		}
		edges[v[1]] = v[2]
		return nil
	})
	if err != nil {
		return soc.Hierarchy{}, perr.WithOp(err, "load hierarchy")
	}
	return soc.NewHierarchy(levels), nil
}

// LoadFiles opens and loads both tables
func LoadFiles(codesPath, hierarchyPath string) (soc.CodeTable, soc.Hierarchy, error) {
	var (
		codes soc.CodeTable
		h     soc.Hierarchy
	)
	err := withFile(codesPath, func(f io.Reader) (err error) {
		codes, err = LoadCodeTable(f)
		return err
	})
	if err != nil {
		return codes, h, err
	}
	err = withFile(hierarchyPath, func(f io.Reader) (err error) {
		h, err = LoadHierarchy(f)
		return err
	})
	return codes, h, err
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return perr.Wrapf(err, perr.ErrorCodeNotFound, "lookup file %s", path)
		}
		return perr.Wrapf(err, perr.ErrorCodeConfig, "lookup file %s", path)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return perr.Wrapf(err, perr.CodeOf(err), "lookup file %s", path)
	}
	return nil
}

// eachRow calls fn with the wanted columns of each data row, in the order
// given by cols. line is the 1-indexed CSV line of the row
func eachRow(r io.Reader, cols []string, fn func(line int, vals []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return perr.Configf("missing header row")
		}
		return perr.Wrap(err, perr.ErrorCodeConfig, "read header")
	}
	idx, err := columnIndex(header, cols)
	if err != nil {
		return err
	}

	vals := make([]string, len(cols))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeConfig, "read csv")
		}
		line, _ := cr.FieldPos(0)
		for i, j := range idx {
			if j >= len(rec) {
				return perr.WithLine(perr.Configf("missing column %s", cols[i]), line)
			}
			vals[i] = strings.TrimSpace(rec[j])
		}
		if err := fn(line, vals); err != nil {
			return err
		}
	}
}

func columnIndex(header, cols []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, ok := pos[c]
		if !ok {
			return nil, perr.Configf("header has no %s column", c)
		}
		idx[i] = j
	}
	return idx, nil
}

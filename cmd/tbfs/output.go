package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/notargets/TBFermi/contour"
	"gonum.org/v1/gonum/mat"
)

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// writeCSV writes records to dir/name
func writeCSV(dir, name string, records [][]string) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, f.Close()
}

// matrixRecords renders m one row per line
func matrixRecords(m mat.Matrix) [][]string {
	r, c := m.Dims()
	out := make([][]string, r)
	for i := 0; i < r; i++ {
		out[i] = make([]string, c)
		for j := 0; j < c; j++ {
			out[i][j] = formatFloat(m.At(i, j))
		}
	}
	return out
}

// vectorRecords renders named columns of equal length with a header
func vectorRecords(names []string, cols ...[]float64) [][]string {
	out := [][]string{names}
	if len(cols) == 0 {
		return out
	}
	for i := range cols[0] {
		row := make([]string, len(cols))
		for k, c := range cols {
			row[k] = formatFloat(c[i])
		}
		out = append(out, row)
	}
	return out
}

// contourRecords flattens contour paths to band,path,closed,kx,ky rows
func contourRecords(names []string, contours [][]contour.Path) [][]string {
	out := [][]string{{"band", "path", "closed", "kx", "ky"}}
	for n, paths := range contours {
		for _, p := range paths {
			for k := range p.X {
				out = append(out, []string{
					names[n],
					strconv.Itoa(p.Index),
					strconv.FormatBool(p.Closed),
					formatFloat(p.X[k]),
					formatFloat(p.Y[k]),
				})
			}
		}
	}
	return out
}

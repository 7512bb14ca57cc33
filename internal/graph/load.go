package graph

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// edgeFile is the JSON on-disk shape: {"edges": [...]}.
type edgeFile struct {
	Edges []Edge `json:"edges"`
}

// LoadJSON reads edges from a JSON file of the form {"edges": [...]}.
func LoadJSON(path string) ([]Edge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph json %s: %w", path, err)
	}
	var f edgeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse graph json %s: %w", path, err)
	}
	return f.Edges, nil
}

// LoadCSV reads edges from a CSV file with a header row naming at least the
// source, relation and target columns (any order).
func LoadCSV(path string) ([]Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read graph csv header %s: %w", path, err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	si, ok1 := col["source"]
	ti, ok2 := col["target"]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("graph csv %s: missing source/target columns", path)
	}
	ri, hasRel := col["relation"]

	var edges []Edge
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read graph csv row %s: %w", path, err)
		}
		e := Edge{Source: rec[si], Target: rec[ti]}
		if hasRel && ri < len(rec) {
			e.Relation = rec[ri]
		}
		if e.Source == "" || e.Target == "" {
			continue
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// LoadFile loads edges from either a JSON or a CSV edge file, preferring the
// JSON file when both exist. Missing files are not an error: retrieval over
// an empty graph simply finds no evidence.
func LoadFile(jsonPath, csvPath string) ([]Edge, error) {
	if jsonPath != "" {
		if _, err := os.Stat(jsonPath); err == nil {
			return LoadJSON(jsonPath)
		}
	}
	if csvPath != "" {
		if _, err := os.Stat(csvPath); err == nil {
			return LoadCSV(csvPath)
		}
	}
	return nil, nil
}

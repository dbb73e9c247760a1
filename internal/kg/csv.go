// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package kg

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadTriples parses a triples CSV. The first row is a header that must name
// head, relation and tail columns (extra columns are ignored); every value is
// trimmed of surrounding whitespace.
func ReadTriples(r io.Reader) ([]Triple, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("triples file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{"head": -1, "relation": -1, "tail": -1}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := cols[name]; ok {
			cols[name] = i
		}
	}
	for name, idx := range cols {
		if idx < 0 {
			return nil, fmt.Errorf("header is missing the %q column", name)
		}
	}
	width := max(cols["head"], cols["relation"], cols["tail"]) + 1

	var triples []Triple
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read triples: %w", err)
		}
		if len(record) < width {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, width, len(record))
		}
		triples = append(triples, Triple{
			Head:     strings.TrimSpace(record[cols["head"]]),
			Relation: strings.TrimSpace(record[cols["relation"]]),
			Tail:     strings.TrimSpace(record[cols["tail"]]),
		})
	}
	return triples, nil
}

// LoadFile reads a triples CSV from disk and builds the graph.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open triples: %w", err)
	}
	defer f.Close()

	triples, err := ReadTriples(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	g, err := New(triples)
	if err != nil {
		return nil, fmt.Errorf("build graph from %s: %w", path, err)
	}
	return g, nil
}

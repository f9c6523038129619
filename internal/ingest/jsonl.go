// Package ingest loads the extraction collaborator's output into a
// run: facts and gaps as JSONL, the inventory summary as JSON.
//
// Each JSONL record is validated on its own; one malformed line fails
// the whole import so a partially loaded evidence base never reaches
// the analysis stages.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/oakmont/dealscope/internal/types"
)

// maxLineSize bounds a single JSONL record (1MB).
const maxLineSize = 1 << 20

// ReadFacts parses a JSONL stream of facts, validating each record.
func ReadFacts(r io.Reader) ([]types.Fact, error) {
	var facts []types.Fact
	err := eachLine(r, func(line []byte, n int) error {
		var f types.Fact
		if err := json.Unmarshal(line, &f); err != nil {
			return fmt.Errorf("line %d: malformed fact: %w", n, err)
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("line %d: invalid fact: %w", n, err)
		}
		facts = append(facts, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// ReadGaps parses a JSONL stream of gaps, validating each record.
func ReadGaps(r io.Reader) ([]types.Gap, error) {
	var gaps []types.Gap
	err := eachLine(r, func(line []byte, n int) error {
		var g types.Gap
		if err := json.Unmarshal(line, &g); err != nil {
			return fmt.Errorf("line %d: malformed gap: %w", n, err)
		}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("line %d: invalid gap: %w", n, err)
		}
		gaps = append(gaps, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gaps, nil
}

// ReadInventory parses the inventory collaborator's JSON summary.
func ReadInventory(r io.Reader) (*types.InventorySummary, error) {
	var inv types.InventorySummary
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&inv); err != nil {
		return nil, fmt.Errorf("malformed inventory summary: %w", err)
	}
	return &inv, nil
}

// LoadFactsFile reads a facts JSONL file from disk.
func LoadFactsFile(path string) ([]types.Fact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open facts file: %w", err)
	}
	defer f.Close()
	facts, err := ReadFacts(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return facts, nil
}

// LoadGapsFile reads a gaps JSONL file from disk.
func LoadGapsFile(path string) ([]types.Gap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gaps file: %w", err)
	}
	defer f.Close()
	gaps, err := ReadGaps(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gaps, nil
}

// LoadInventoryFile reads an inventory summary JSON file from disk.
func LoadInventoryFile(path string) (*types.InventorySummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file: %w", err)
	}
	defer f.Close()
	inv, err := ReadInventory(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inv, nil
}

// eachLine calls fn for every non-blank line, with 1-based numbering.
func eachLine(r io.Reader, fn func(line []byte, n int) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line, n); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// Package lookup resolves ITU geographical-area codes to display names.
// The table is the published geographical-areas CSV, loaded once per run.
package lookup

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

const unknownName = "Unknown"

type Countries struct {
	names map[string]string
}

// Empty returns a lookup with no entries; every code resolves to "Unknown".
// Used when the table file is unavailable.
func Empty() *Countries {
	return &Countries{names: map[string]string{}}
}

func Load(path string) (*Countries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*Countries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	names := map[string]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("country table: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		names[record[0]] = record[1]
	}

	return &Countries{names: names}, nil
}

// Name resolves a code to its display name. Missing codes resolve to
// "Unknown", never an error.
func (c *Countries) Name(code string) string {
	if name, ok := c.names[code]; ok {
		return name
	}
	return unknownName
}

func (c *Countries) Len() int { return len(c.names) }

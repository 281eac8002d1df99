// Package record implements header-indexed access to positional spreadsheet
// rows. A Record is only ever read or written through the Header it was
// fetched with; every accessor takes the pair together so a record can never
// be aligned against the wrong header.
package record

import (
	"errors"
	"fmt"
)

// ErrColumnNotFound indicates a column name absent from the header. This is a
// programming or configuration error, not a data error.
var ErrColumnNotFound = errors.New("column not found in header")

// Header is an ordered list of column names defining the positional meaning
// of every Record aligned to it.
type Header []string

// Record is one row of cell values, positionally aligned to a Header.
type Record []string

// Index returns the position of name within the header.
func (h Header) Index(name string) (int, error) {
	for i, col := range h {
		if col == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Get returns the cell value for the named column. Rows fetched from the
// remote store may be shorter than the header (trailing empty cells are not
// returned by the backend); those read as empty.
func (h Header) Get(r Record, name string) (string, error) {
	i, err := h.Index(name)
	if err != nil {
		return "", err
	}
	if i >= len(r) {
		return "", nil
	}
	return r[i], nil
}

// Set writes value into the named column, growing the record up to header
// width if needed.
func (h Header) Set(r *Record, name, value string) error {
	i, err := h.Index(name)
	if err != nil {
		return err
	}
	for len(*r) <= i {
		*r = append(*r, "")
	}
	(*r)[i] = value
	return nil
}

// GetAcross returns the values of the named columns in header order. Names
// beyond the record's length are skipped, matching the backend's trailing
// cell elision.
func (h Header) GetAcross(r Record, names []string) []string {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []string
	for i, col := range h {
		if i >= len(r) {
			break
		}
		if wanted[col] {
			out = append(out, r[i])
		}
	}
	return out
}

// SetAcross writes every entry of values into its named column.
func (h Header) SetAcross(r *Record, values map[string]string) error {
	for name, value := range values {
		if err := h.Set(r, name, value); err != nil {
			return err
		}
	}
	return nil
}

// Column returns the named column's value for every record.
func (h Header) Column(rows []Record, name string) ([]string, error) {
	i, err := h.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if i >= len(r) {
			out = append(out, "")
			continue
		}
		out = append(out, r[i])
	}
	return out, nil
}

// New returns an empty record of header width.
func (h Header) New() Record {
	return make(Record, len(h))
}

// Truncate trims every row to header width. Older exports carried trailing
// columns past the current header; those cells are dropped on write-back.
// This is lossy and intentional.
func (h Header) Truncate(rows []Record) []Record {
	max := len(h)
	out := make([]Record, len(rows))
	for i, r := range rows {
		if len(r) > max {
			out[i] = r[:max]
		} else {
			out[i] = r
		}
	}
	return out
}

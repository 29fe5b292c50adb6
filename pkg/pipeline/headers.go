package pipeline

import (
	"github.com/ajitpratap0/prism/pkg/errors"
)

// Headers is the ordered registry of column names for a pipeline stage.
// Names are unique and positions are 0-based. Headers values are immutable;
// the WithAdded, WithRemoved and WithRenamed methods derive new registries
// and leave the receiver untouched.
type Headers struct {
	names []string
	index map[string]int
}

// NewHeaders builds a registry from column names in order. It fails with a
// duplicate_column error if a name appears twice.
func NewHeaders(names []string) (Headers, error) {
	h := Headers{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}

	for i, name := range names {
		if _, exists := h.index[name]; exists {
			return Headers{}, errors.Newf(errors.ErrorTypeDuplicateColumn,
				"column %q already exists", name).WithDetail("column", name)
		}
		h.names[i] = name
		h.index[name] = i
	}

	return h, nil
}

// Len returns the number of columns.
func (h Headers) Len() int {
	return len(h.names)
}

// Names returns the column names in order. The slice is a copy.
func (h Headers) Names() []string {
	names := make([]string, len(h.names))
	copy(names, h.names)
	return names
}

// Field returns the row's cell in the named column.
func (h Headers) Field(row Row, name string) (string, error) {
	i, err := h.Index(name)
	if err != nil {
		return "", err
	}
	if i >= len(row) {
		return "", errors.Newf(errors.ErrorTypeValidation,
			"row has %d cells for %d columns", len(row), len(h.names))
	}
	return row[i], nil
}

// Index returns the position of the named column, failing with a
// missing_column error when absent.
func (h Headers) Index(name string) (int, error) {
	if i, ok := h.index[name]; ok {
		return i, nil
	}
	return 0, errors.Newf(errors.ErrorTypeMissingColumn, "no column named %q", name).
		WithDetail("column", name).
		WithDetail("available", h.Names())
}

// Contains reports whether the named column exists.
func (h Headers) Contains(name string) bool {
	_, ok := h.index[name]
	return ok
}

// Equal reports whether both registries have the same columns in the same
// order.
func (h Headers) Equal(other Headers) bool {
	if len(h.names) != len(other.names) {
		return false
	}
	for i, name := range h.names {
		if other.names[i] != name {
			return false
		}
	}
	return true
}

// WithAdded derives a registry with name appended as the last column.
func (h Headers) WithAdded(name string) (Headers, error) {
	if h.Contains(name) {
		return Headers{}, errors.Newf(errors.ErrorTypeDuplicateColumn,
			"column %q already exists", name).WithDetail("column", name)
	}
	return NewHeaders(append(h.Names(), name))
}

// WithRemoved derives a registry without the named column. Positions of
// the columns after it shift down by one.
func (h Headers) WithRemoved(name string) (Headers, error) {
	i, err := h.Index(name)
	if err != nil {
		return Headers{}, err
	}

	names := h.Names()
	return NewHeaders(append(names[:i], names[i+1:]...))
}

// WithRenamed derives a registry with the from column renamed to to,
// keeping its position.
func (h Headers) WithRenamed(from, to string) (Headers, error) {
	i, err := h.Index(from)
	if err != nil {
		return Headers{}, err
	}
	if to != from && h.Contains(to) {
		return Headers{}, errors.Newf(errors.ErrorTypeDuplicateColumn,
			"column %q already exists", to).WithDetail("column", to)
	}

	names := h.Names()
	names[i] = to
	return NewHeaders(names)
}

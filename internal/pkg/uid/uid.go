// Package uid provides ID generation behind small interfaces so row IDs and
// correlation IDs can be faked in tests.
package uid

// NumberID generates int64 identifiers for database rows.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers (correlation IDs, dedup suffixes).
type StringID interface {
	Generate() string
}

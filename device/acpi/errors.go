package acpi

import "github.com/MaxRS07/max-os/kernel"

var (
	// ErrTableNotFound is returned when no candidate matching the requested
	// signature exists in any scanned range.
	ErrTableNotFound = &kernel.Error{Module: "acpi", Message: "table not found"}

	// ErrChecksumMismatch is returned when a candidate's bytes do not fold
	// to zero.
	ErrChecksumMismatch = &kernel.Error{Module: "acpi", Message: "table checksum mismatch"}

	// ErrSignatureMismatch is returned when the table found at an address
	// does not carry the expected signature.
	ErrSignatureMismatch = &kernel.Error{Module: "acpi", Message: "table signature mismatch"}

	// ErrInvalidTableLength is returned when a table header declares a
	// length that cannot hold the table.
	ErrInvalidTableLength = &kernel.Error{Module: "acpi", Message: "invalid table length"}

	// ErrInvalidScanRange is returned for regions whose start address is
	// above their end address.
	ErrInvalidScanRange = &kernel.Error{Module: "acpi", Message: "invalid scan range"}
)

// IsValidationError returns true if err reports a candidate table that was
// found but failed validation.
func IsValidationError(err *kernel.Error) bool {
	return err == ErrChecksumMismatch || err == ErrSignatureMismatch || err == ErrInvalidTableLength
}

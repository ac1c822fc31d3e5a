package postprocess

import "fmt"

// MalformedOutputError reports an output buffer whose length is not a multiple of
// RecordSize. In lenient mode the trailing values are dropped.
type MalformedOutputError struct {
	Length     int
	RecordSize int
	Dropped    int
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed output: length %d is not a multiple of %d (%d trailing values)",
		e.Length, e.RecordSize, e.Dropped)
}

// CheckRecords validates that a buffer of the given length holds whole records.
//
// Returns:
//   - nil when length is a multiple of RecordSize.
//   - *MalformedOutputError otherwise.
func CheckRecords(length int) error {
	if rem := length % RecordSize; rem != 0 {
		return &MalformedOutputError{Length: length, RecordSize: RecordSize, Dropped: rem}
	}
	return nil
}

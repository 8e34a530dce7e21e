package constants

// FileStatus is the canonical per-file outcome of a batch ingest.
type FileStatus string

// Stable values (these exact strings appear in batch reports).
const (
	StatusParsed      FileStatus = "PARSED"       // extracted, parsed and saved
	StatusInvalidType FileStatus = "INVALID_TYPE" // extension not in the allowed set
	StatusDuplicate   FileStatus = "DUPLICATE"    // filename already stored, skipped
	StatusError       FileStatus = "ERROR"        // extraction or storage failure
)

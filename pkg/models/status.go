package models

// DocStatus represents the processing status of a document in the database
type DocStatus string

const (
	DocStatusUnset    DocStatus = ""          // Zero value = unset/unknown
	DocStatusPending  DocStatus = "pending"   // Document queued but not processed
	DocStatusSuccess  DocStatus = "success"   // Document flattened and stored successfully
	DocStatusFailure  DocStatus = "failure"   // Document processing failed
	DocStatusNotFound DocStatus = "not_found" // Document not in database
	DocStatusDBError  DocStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s DocStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s DocStatus) IsValid() bool {
	switch s {
	case DocStatusPending, DocStatusSuccess, DocStatusFailure:
		return true
	}
	return false
}

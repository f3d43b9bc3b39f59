package index

// EntryIndex is the search mirror used by the API and MCP layers.
type EntryIndex interface {
	UpsertEntry(r EntryRow) error
	DeleteEntry(id string) error
	GetChecksum(id string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ EntryIndex = (*DB)(nil)

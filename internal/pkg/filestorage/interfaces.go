package filestorage

// Upload categories used as subdirectories of the archive
const (
	CategoryRoster     = "roster"
	CategoryAttendance = "attendance"
	CategoryUsers      = "users"
)

// FileStorage keeps copies of uploaded import files
type FileStorage interface {
	// SaveUpload stores content under category and returns the path it was written to
	SaveUpload(category, originalName string, content []byte) (string, error)

	// DeleteFile removes a stored file
	DeleteFile(storedPath string) error

	// GetFullPath returns the filesystem path of a stored file
	GetFullPath(storedPath string) string
}

// NopStorage discards uploads; used when no archive directory is configured
type NopStorage struct{}

// SaveUpload implements FileStorage
func (NopStorage) SaveUpload(string, string, []byte) (string, error) { return "", nil }

// DeleteFile implements FileStorage
func (NopStorage) DeleteFile(string) error { return nil }

// GetFullPath implements FileStorage
func (NopStorage) GetFullPath(string) string { return "" }

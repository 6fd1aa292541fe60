package config

const (
	// MaxNodeNameLength is the maximum length for folder and request names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxNodeNameLength = 255

	// MaxURLLength is the maximum length of a request URL. Most browsers
	// and proxies refuse URLs longer than this.
	MaxURLLength = 2048

	// DefaultUndoLevels is the undo history kept per open document when
	// UNDO_LEVELS is not set.
	DefaultUndoLevels = 100
)

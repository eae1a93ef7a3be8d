package validation

// String lengths
const (
	MaxNameLength       = 120
	MaxEmailLength      = 254
	MaxIdentifierLength = 64
)

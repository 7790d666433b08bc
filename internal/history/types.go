package history

type ErrorKind int

const (
	ErrorFileNotFound ErrorKind = iota
	ErrorReadError
	ErrorFileTooLarge
	ErrorMalformedEntry
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorFileNotFound:
		return "file not found"
	case ErrorReadError:
		return "read error"
	case ErrorFileTooLarge:
		return "file too large"
	case ErrorMalformedEntry:
		return "malformed entry"
	default:
		return "unknown"
	}
}

type LoadError struct {
	Kind    ErrorKind
	Path    string
	Line    int
	Message string
}

func (e LoadError) Error() string {
	return e.Message
}

type Limits struct {
	MaxFileSizeBytes int64
}

func DefaultLimits() Limits {
	return Limits{
		MaxFileSizeBytes: 10 * 1024 * 1024,
	}
}

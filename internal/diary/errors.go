package diary

import "errors"

// Errors returned by the store and its callers.
var (
	ErrKeyRequired   = errors.New("date key is required")
	ErrInvalidKey    = errors.New("invalid date key (expected YYYYMMDD)")
	ErrTitleRequired = errors.New("title is required")
	ErrNotFound      = errors.New("entry not found")
	ErrGateRequired  = errors.New("Config.Gate is required")
	ErrPathRequired  = errors.New("Config.Path is required")
)

// Config errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataFileEmpty      = errors.New("data-file cannot be empty")
	ErrLogFormatInvalid   = errors.New("log_format must be \"console\" or \"json\"")
	ErrLogLevelInvalid    = errors.New("invalid log_level")
)

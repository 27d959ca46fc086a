package ports

// Console is the user-visible log.
type Console interface {
	Post(msg string)
	Error(msg string)
	Clear()
}

// ScriptLocator resolves script file names against a search path.
type ScriptLocator interface {
	// Find returns the full path of the named file, or an error if it cannot be found.
	Find(name string) (string, error)
}

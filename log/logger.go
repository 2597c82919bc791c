package log

// Logger handles logging.
type Logger interface {
	Debugf(tmpl string, args ...interface{})
	Errorf(tmpl string, args ...interface{})
	Infof(tmpl string, args ...interface{})
	Warnf(tmpl string, args ...interface{})
}

// NewNoop returns a Logger that drops every entry.
func NewNoop() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Errorf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}

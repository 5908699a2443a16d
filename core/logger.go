package core

// Logger is any service that can log and report messages.
// args may hold an error, a map[string]interface{} of extras or a Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the authenticated operator behind a logged event.
type Person struct {
	ID       string
	Username string
	Email    string
}

package run

import "strings"

// ErrorList collects errors from independent steps that should all be
// attempted before reporting.
type ErrorList struct {
	errs []error
}

// Append records errs, skipping nils, and reports whether any error has
// been recorded so far.
func (l *ErrorList) Append(errs ...error) bool {
	for _, err := range errs {
		if err != nil {
			l.errs = append(l.errs, err)
		}
	}
	return len(l.errs) > 0
}

// Errors returns the recorded errors.
func (l *ErrorList) Errors() []error { return l.errs }

// Err returns nil when no error was recorded, the single error when there
// is one, and the list itself otherwise.
func (l *ErrorList) Err() error {
	switch len(l.errs) {
	case 0:
		return nil
	case 1:
		return l.errs[0]
	}
	return l
}

// Error implements error.
func (l *ErrorList) Error() string {
	msgs := make([]string, len(l.errs))
	for n, err := range l.errs {
		msgs[n] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Package errext contains extensions for normal Go errors that are used in extdriver.
package errext

// Exception represents errors that resulted from an exception thrown by a
// script evaluated in the page, carrying the page side stack trace.
type Exception interface {
	error
	StackTrace() string
}

// Package compileerr carries a typed error-kind taxonomy as a Result-style
// return value: compilation failures are returned, not thrown, and are
// bubbled up at the parallel-work barriers that already join on error.
package compileerr

import "fmt"

type Kind int

const (
	KindConfiguration Kind = iota
	KindInput
	KindMissingReference
	KindAmbiguousDispatch
	KindCapacity
	KindDebugInfo
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInput:
		return "input"
	case KindMissingReference:
		return "missing-reference"
	case KindAmbiguousDispatch:
		return "ambiguous-dispatch"
	case KindCapacity:
		return "capacity"
	case KindDebugInfo:
		return "debug-info"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with the item descriptor it concerns and an optional
// source location (file/line/column).
type Error struct {
	Kind    Kind
	Item    string // descriptor of the offending class/method/field/file
	File    string
	Line    int
	Column  int
	Snippet string
	Msg     string
	Wrapped error
}

func (e *Error) Error() string {
	loc := ""
	if e.File != "" {
		loc = fmt.Sprintf("%s:%d:%d: ", e.File, e.Line, e.Column)
	}
	item := ""
	if e.Item != "" {
		item = fmt.Sprintf(" [%s]", e.Item)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s%s (%s)%s: %v", loc, e.Msg, e.Kind, item, e.Wrapped)
	}
	return fmt.Sprintf("%s%s (%s)%s", loc, e.Msg, e.Kind, item)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func Configuration(file string, line, col int, snippet, msg string) *Error {
	return &Error{Kind: KindConfiguration, File: file, Line: line, Column: col, Snippet: snippet, Msg: msg}
}

func Input(item, msg string, wrapped error) *Error {
	return &Error{Kind: KindInput, Item: item, Msg: msg, Wrapped: wrapped}
}

func MissingReference(item, msg string) *Error {
	return &Error{Kind: KindMissingReference, Item: item, Msg: msg}
}

func AmbiguousDispatch(item, msg string) *Error {
	return &Error{Kind: KindAmbiguousDispatch, Item: item, Msg: msg}
}

func Capacity(dexID int, msg string) *Error {
	return &Error{Kind: KindCapacity, Item: fmt.Sprintf("dex#%d", dexID), Msg: msg}
}

func DebugInfo(item, msg string) *Error {
	return &Error{Kind: KindDebugInfo, Item: item, Msg: msg}
}

package core

import "strings"

const (
	// IdentifierDelimiter separates the unit name from the method name.
	IdentifierDelimiter = "::"

	// DefaultMethodName is used when the identifier names no method.
	DefaultMethodName = "HandleRequest"
)

// HandlerIdentifier names the unit to load and the method to call on it.
type HandlerIdentifier struct {
	Unit   string
	Method string
}

// ParseIdentifier splits "<unit>::<method>" into its parts. Anything other than
// exactly two segments, or an empty method segment, falls back to
// DefaultMethodName. No further validation happens here; an unusable unit name
// surfaces as ErrNotFound at resolution.
func ParseIdentifier(s string) HandlerIdentifier {
	parts := strings.Split(s, IdentifierDelimiter)
	id := HandlerIdentifier{Unit: parts[0], Method: DefaultMethodName}
	if len(parts) == 2 && parts[1] != "" {
		id.Method = parts[1]
	}
	return id
}

// String renders the identifier back in "<unit>::<method>" form.
func (id HandlerIdentifier) String() string {
	return id.Unit + IdentifierDelimiter + id.Method
}

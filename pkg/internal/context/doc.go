// Package context provides internal context utilities for invocation
// metadata.
//
// This package is internal and should not be imported directly.
// Use the lambdactx package for the public accessors.
package context

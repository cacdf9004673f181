// Package security provides validation, sanitization, and limits for the handlerwrap package.
//
// This package includes:
//   - Validation for registered unit names
//   - Error message sanitization before invocation errors are journaled
//   - Size limits for textual payloads accepted by input coercion
//
// Most users should import the root package github.com/jdziat/handlerwrap
// which re-exports these limits.
package security

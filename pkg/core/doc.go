// Package core provides the fundamental types and interfaces for the handlerwrap package.
//
// This package contains:
//   - HandlerIdentifier parsing for "<unit>::<method>" strings
//   - Handler kinds and the StreamHandler contract
//   - Invocation records with GORM annotations
//   - Journal interface defining the persistence contract
//   - Error types for resolution and invocation
//
// Most users should import the root package github.com/jdziat/handlerwrap
// instead of this package directly.
package core

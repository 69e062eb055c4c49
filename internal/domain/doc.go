// Package domain defines the core business types for the SOAR-AI campaign
// backend.
//
// Types in this package are pure value objects with no behavior beyond simple
// derived accessors, no database dependencies, and no HTTP concerns. They are
// the shared language between the dispatch, tracking, and API layers.
package domain

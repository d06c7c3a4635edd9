// Package readinglist provides an asynchronous reading-list service.
// A submitted URL is fetched, reduced to plain text, and summarized by
// an external language model, with each submission tracked as an item
// moving through a pending -> success | error lifecycle.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., sqlite/,
// openrouter/, regexp/).
package readinglist

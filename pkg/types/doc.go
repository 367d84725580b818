// Package types provides shared type definitions for ScholarGraph: documents,
// chunks, search results, and the sentinel errors that cross package
// boundaries.
package types

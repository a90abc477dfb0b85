// Package snapshot produces the price-aggregated depth view of every book.
//
// Take walks the engine's symbols in sorted order and pairs bid levels
// (highest first) with ask levels (lowest first) row by row. Blocks can be
// rendered as text lines, written to disk with Writer, or handed to any
// other sink.
package snapshot

// Package reader provides filesystem access for the indexing pipeline.
//
// LocalReader reads regular files from the local disk and classifies them by
// extension. Text files are read directly with invalid UTF-8 stripped. PDF and
// image files are converted to text through pluggable extraction hooks so the
// package carries no parsing or vision dependencies of its own.
//
// Directory listing prunes hidden entries by default and filters to the
// extensions the indexer understands, so callers can hand the result straight
// to the index pipeline.
package reader

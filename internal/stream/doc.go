// Package stream contains abstractions for the filter's input and output byte streams. It hides
// the differences between standard streams, plain files and compressed files, and guarantees that
// standard streams are never closed.
package stream

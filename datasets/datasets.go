// Package datasets loads the Labeled Faces in the Wild occluded faces dataset
// and presents each of its partitions as a collection of records.
//
// Every record pairs an occluded face (the input) with the clean face (the
// target). Both are flattened 32x32 grayscale images normalized to [0,1].
//
// Two collection backends are provided:
//
// StreamingCollection
//   - Stores a Source (usually a file path) and decodes one line at a time
//     while it is iterated. Only the record being produced is kept in memory.
//   - Restartable when the Source can be reopened; files can, plain readers
//     cannot.
//
// MaterializedCollection
//   - Consumes a stream once and keeps two flat, row-major float64 tables of
//     shape [length, inputSize] and [length, targetSize].
//   - Random access, a known length and repeated iteration without touching
//     storage again. Tables convert directly into gomlx tensors.
//
// Load wires both backends to the on-disk layout produced by the dataset's
// download step: <dir>/occluded_faces_lfw_{train,valid,test}.txt.
package datasets

import (
	"iter"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedLine is returned when a line cannot be decoded into a record.
	ErrMalformedLine = errors.New("malformed record line")

	// ErrLengthMismatch is returned when a partition yields a different number
	// of records than it declares.
	ErrLengthMismatch = errors.New("record count does not match declared length")

	// ErrShapeMismatch is returned when a record's vectors do not have the
	// declared sizes.
	ErrShapeMismatch = errors.New("record shape does not match declared shape")

	// ErrIndexOutOfRange is returned by random access outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnknownPartition is returned for partition names other than train,
	// valid and test.
	ErrUnknownPartition = errors.New("unknown partition")

	// ErrSourceConsumed is returned when a single-pass source is opened twice.
	ErrSourceConsumed = errors.New("source cannot be reopened")

	// ErrNotRegularFile is returned by Load when a partition path names a
	// directory, device or other non-regular file.
	ErrNotRegularFile = errors.New("not a regular file")
)

// Record is one (input, target) pair decoded from a single storage line.
type Record struct {
	Input  []float64
	Target []float64
}

// Collection is implemented by both the streaming and the materialized
// backends.
type Collection interface {
	// Name identifies the collection in logs and errors, usually the
	// partition file.
	Name() string

	// Len returns the declared number of records, or -1 when unknown.
	Len() int

	// Shape returns the sizes of the input and target vectors.
	Shape() (inputSize, targetSize int)

	// All yields the records in storage order. Iteration stops after the
	// first non-nil error.
	All() iter.Seq2[Record, error]
}

package datasets

import (
	"iter"

	"github.com/pkg/errors"
)

// StreamingCollection lazily decodes records from a Source. Nothing is read
// until the collection is iterated, and every iteration starts a new pass
// over the source.
type StreamingCollection struct {
	src    Source
	codec  LineCodec
	length int
}

// NewStreamingCollection returns a collection decoding src with codec.
// length is the declared record count; pass a negative value when it is
// unknown.
func NewStreamingCollection(src Source, codec LineCodec, length int) *StreamingCollection {
	if length < 0 {
		length = -1
	}
	return &StreamingCollection{src: src, codec: codec, length: length}
}

// Name returns the source name.
func (s *StreamingCollection) Name() string {
	return s.src.Name()
}

// Len returns the declared length, or -1 when unknown.
func (s *StreamingCollection) Len() int {
	return s.length
}

// Shape returns the codec's vector sizes.
func (s *StreamingCollection) Shape() (int, int) {
	return s.codec.InputSize, s.codec.TargetSize
}

// Source returns the underlying storage.
func (s *StreamingCollection) Source() Source {
	return s.src
}

// All opens the source and yields one decoded record per non-blank line.
// When the declared length is known, a pass that ends with a different count
// yields a final ErrLengthMismatch.
func (s *StreamingCollection) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		rc, err := s.src.Open()
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer rc.Close()

		sc := newLineScanner(rc)
		lineNo, count := 0, 0
		for sc.Scan() {
			lineNo++
			line := sc.Text()
			if isBlank(line) {
				continue
			}
			rec, err := s.codec.Decode(line)
			if err != nil {
				yield(Record{}, errors.Wrapf(err, "failed to decode %s:%d", s.src.Name(), lineNo))
				return
			}
			count++
			if !yield(rec, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Record{}, errors.Wrapf(err, "failed to read %s", s.src.Name()))
			return
		}
		if s.length >= 0 && count != s.length {
			yield(Record{}, errors.Wrapf(ErrLengthMismatch, "failed to read %s: declared %d records, read %d", s.src.Name(), s.length, count))
		}
	}
}

// Iter returns a pull-style iterator over a new pass of the collection.
func (s *StreamingCollection) Iter() *RecordIterator {
	return newRecordIterator(s.All())
}

// RecordIterator pulls records one at a time from a Collection's All
// sequence. Close must be called if iteration stops before Next returns
// false.
type RecordIterator struct {
	next func() (Record, error, bool)
	stop func()

	rec Record
	err error
}

func newRecordIterator(seq iter.Seq2[Record, error]) *RecordIterator {
	next, stop := iter.Pull2(seq)
	return &RecordIterator{next: next, stop: stop}
}

// Next advances to the next record. It returns false at the end of the pass
// or after an error; check Err to tell them apart.
func (it *RecordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	rec, err, ok := it.next()
	if !ok {
		return false
	}
	if err != nil {
		it.err = err
		it.stop()
		return false
	}
	it.rec = rec
	return true
}

// Record returns the record produced by the last successful Next.
func (it *RecordIterator) Record() Record {
	return it.rec
}

// Err returns the error that ended the pass, if any.
func (it *RecordIterator) Err() error {
	return it.err
}

// Close releases the underlying source.
func (it *RecordIterator) Close() {
	it.stop()
}

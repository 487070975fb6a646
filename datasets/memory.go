package datasets

import (
	"context"
	"iter"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// MaterializedCollection holds a whole partition in two flat row-major
// tables: inputs is [length, inputSize] and targets is [length, targetSize].
type MaterializedCollection struct {
	name       string
	length     int
	inputSize  int
	targetSize int

	inputs  []float64
	targets []float64
}

// preallocRows bounds the rows Materialize allocates before reading any
// data. Tables grow past it with append as records arrive.
const preallocRows = 4096

// Materialize consumes c once and stores its records in memory. The stream
// must produce exactly length records with the shape c declares; otherwise
// ErrLengthMismatch or ErrShapeMismatch is returned. Errors from the stream
// are returned unchanged.
func Materialize(c Collection, length int) (*MaterializedCollection, error) {
	return materialize(context.Background(), c, length)
}

// materialize is Materialize that gives up with ctx.Err() once ctx is done.
func materialize(ctx context.Context, c Collection, length int) (*MaterializedCollection, error) {
	if length < 0 {
		return nil, errors.Errorf("failed to materialize %s: negative length %d", c.Name(), length)
	}
	inputSize, targetSize := c.Shape()
	rows := min(length, preallocRows)
	m := &MaterializedCollection{
		name:       c.Name(),
		length:     length,
		inputSize:  inputSize,
		targetSize: targetSize,
		inputs:     make([]float64, 0, rows*inputSize),
		targets:    make([]float64, 0, rows*targetSize),
	}

	n := 0
	for rec, err := range c.All() {
		if err != nil {
			if n == length && errors.Is(err, ErrLengthMismatch) {
				// the stream checks its own declared length; ours is authoritative
				break
			}
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "failed to materialize %s", c.Name())
		}
		if n == length {
			return nil, errors.Wrapf(ErrLengthMismatch, "failed to materialize %s: more than the declared %d records", c.Name(), length)
		}
		if err := m.checkShape(rec); err != nil {
			return nil, errors.Wrapf(err, "failed to materialize %s: record %d", c.Name(), n)
		}
		m.inputs = append(m.inputs, rec.Input...)
		m.targets = append(m.targets, rec.Target...)
		n++
	}
	if n != length {
		return nil, errors.Wrapf(ErrLengthMismatch, "failed to materialize %s: declared %d records, read %d", c.Name(), length, n)
	}
	return m, nil
}

// NewMaterializedCollection builds a collection from an already decoded
// table. All rows must have the sizes of the first row.
func NewMaterializedCollection(name string, inputs, targets [][]float64) (*MaterializedCollection, error) {
	if len(inputs) != len(targets) {
		return nil, errors.Wrapf(ErrLengthMismatch, "failed to build %s: %d inputs and %d targets", name, len(inputs), len(targets))
	}
	m := &MaterializedCollection{name: name, length: len(inputs)}
	if m.length == 0 {
		return m, nil
	}
	m.inputSize, m.targetSize = len(inputs[0]), len(targets[0])
	m.inputs = make([]float64, 0, m.length*m.inputSize)
	m.targets = make([]float64, 0, m.length*m.targetSize)
	for i := range m.length {
		rec := Record{Input: inputs[i], Target: targets[i]}
		if err := m.checkShape(rec); err != nil {
			return nil, errors.Wrapf(err, "failed to build %s: row %d", name, i)
		}
		m.inputs = append(m.inputs, rec.Input...)
		m.targets = append(m.targets, rec.Target...)
	}
	return m, nil
}

func (m *MaterializedCollection) checkShape(rec Record) error {
	if len(rec.Input) != m.inputSize || len(rec.Target) != m.targetSize {
		return errors.Wrapf(ErrShapeMismatch, "got (%d, %d), want (%d, %d)",
			len(rec.Input), len(rec.Target), m.inputSize, m.targetSize)
	}
	return nil
}

// Name returns the name of the collection it was built from.
func (m *MaterializedCollection) Name() string {
	return m.name
}

// Len returns the number of records.
func (m *MaterializedCollection) Len() int {
	return m.length
}

// Shape returns the sizes of the input and target vectors.
func (m *MaterializedCollection) Shape() (int, int) {
	return m.inputSize, m.targetSize
}

// Input returns a view of row i of the input table. It panics when i is out
// of range, like a slice index.
func (m *MaterializedCollection) Input(i int) []float64 {
	return m.inputs[i*m.inputSize : (i+1)*m.inputSize : (i+1)*m.inputSize]
}

// Target returns a view of row i of the target table.
func (m *MaterializedCollection) Target(i int) []float64 {
	return m.targets[i*m.targetSize : (i+1)*m.targetSize : (i+1)*m.targetSize]
}

// Example returns record i. The vectors share memory with the collection
// and must not be modified.
func (m *MaterializedCollection) Example(i int) (Record, error) {
	if i < 0 || i >= m.length {
		return Record{}, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", i, m.length)
	}
	return Record{Input: m.Input(i), Target: m.Target(i)}, nil
}

// Batch returns the records at the given indices.
func (m *MaterializedCollection) Batch(indices []int) (inputs [][]float64, targets [][]float64, err error) {
	inputs = make([][]float64, len(indices))
	targets = make([][]float64, len(indices))
	for pos, idx := range indices {
		rec, err := m.Example(idx)
		if err != nil {
			return nil, nil, err
		}
		inputs[pos] = rec.Input
		targets[pos] = rec.Target
	}
	return inputs, targets, nil
}

// Column returns feature j of the input table across all records.
func (m *MaterializedCollection) Column(j int) ([]float64, error) {
	if j < 0 || j >= m.inputSize {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "column %d, input size %d", j, m.inputSize)
	}
	col := make([]float64, m.length)
	for i := range m.length {
		col[i] = m.inputs[i*m.inputSize+j]
	}
	return col, nil
}

// All yields every record in order. It never touches storage, so it can be
// called any number of times.
func (m *MaterializedCollection) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for i := range m.length {
			if !yield(Record{Input: m.Input(i), Target: m.Target(i)}, nil) {
				return
			}
		}
	}
}

// Tensors returns the input and target tables as float64 gomlx tensors of
// shape [length, inputSize] and [length, targetSize]. The data is copied.
func (m *MaterializedCollection) Tensors() (inputs *tensors.Tensor, targets *tensors.Tensor) {
	inputs = tensors.FromFlatDataAndDimensions(m.inputs, m.length, m.inputSize)
	targets = tensors.FromFlatDataAndDimensions(m.targets, m.length, m.targetSize)
	return inputs, targets
}

// SizeBytes is the memory held by the two tables.
func (m *MaterializedCollection) SizeBytes() int {
	return 8 * (len(m.inputs) + len(m.targets))
}

package datasets

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/pkg/errors"
)

var _ train.Dataset = (*Batcher)(nil)

// Batcher feeds a Collection to gomlx training loops. Each Yield returns one
// input tensor [batch, inputSize] and one label tensor [batch, targetSize].
//
// Materialized collections are read by index and can be shuffled; other
// collections are read in storage order through a RecordIterator.
type Batcher struct {
	// BatchSize is the number of records per yielded batch.
	BatchSize int

	// DropIncomplete skips the final batch when it is smaller than BatchSize.
	DropIncomplete bool

	coll Collection
	mem  *MaterializedCollection

	order []int
	pos   int

	it *RecordIterator
}

// NewBatcher returns a Batcher over c. A non-positive batchSize defaults to
// 32.
func NewBatcher(c Collection, batchSize int) *Batcher {
	if batchSize <= 0 {
		batchSize = 32
	}
	b := &Batcher{BatchSize: batchSize, coll: c}
	if m, ok := c.(*MaterializedCollection); ok {
		b.mem = m
		b.order = make([]int, m.Len())
		for i := range b.order {
			b.order[i] = i
		}
	}
	return b
}

// Name implements train.Dataset.
func (b *Batcher) Name() string {
	return fmt.Sprintf("%s [batch %d]", b.coll.Name(), b.BatchSize)
}

// Shuffle permutes the order records are yielded in. Only materialized
// collections can be shuffled.
func (b *Batcher) Shuffle(seed int64) error {
	if b.mem == nil {
		return errors.Errorf("failed to shuffle %s: only materialized collections can be shuffled", b.coll.Name())
	}
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(b.order), func(i, j int) {
		b.order[i], b.order[j] = b.order[j], b.order[i]
	})
	return nil
}

// Reset implements train.Dataset. The next Yield starts a new epoch; for
// streaming collections this reopens the source.
func (b *Batcher) Reset() {
	b.pos = 0
	if b.it != nil {
		b.it.Close()
		b.it = nil
	}
}

// Yield implements train.Dataset. It returns io.EOF once the epoch is over.
func (b *Batcher) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	var in, tg []float64
	var n int
	if b.mem != nil {
		in, tg, n = b.nextIndexed()
	} else {
		in, tg, n, err = b.nextStreamed()
		if err != nil {
			return nil, nil, nil, err
		}
	}
	if n == 0 || (b.DropIncomplete && n < b.BatchSize) {
		return nil, nil, nil, io.EOF
	}

	inputSize, targetSize := b.coll.Shape()
	inputs = []*tensors.Tensor{tensors.FromFlatDataAndDimensions(in, n, inputSize)}
	labels = []*tensors.Tensor{tensors.FromFlatDataAndDimensions(tg, n, targetSize)}
	return b, inputs, labels, nil
}

func (b *Batcher) nextIndexed() (in, tg []float64, n int) {
	end := min(b.pos+b.BatchSize, len(b.order))
	inputSize, targetSize := b.mem.Shape()
	n = end - b.pos
	in = make([]float64, 0, n*inputSize)
	tg = make([]float64, 0, n*targetSize)
	for _, idx := range b.order[b.pos:end] {
		in = append(in, b.mem.Input(idx)...)
		tg = append(tg, b.mem.Target(idx)...)
	}
	b.pos = end
	return in, tg, n
}

func (b *Batcher) nextStreamed() (in, tg []float64, n int, err error) {
	if b.it == nil {
		b.it = newRecordIterator(b.coll.All())
	}
	inputSize, targetSize := b.coll.Shape()
	in = make([]float64, 0, b.BatchSize*inputSize)
	tg = make([]float64, 0, b.BatchSize*targetSize)
	for n < b.BatchSize && b.it.Next() {
		rec := b.it.Record()
		in = append(in, rec.Input...)
		tg = append(tg, rec.Target...)
		n++
	}
	if err := b.it.Err(); err != nil {
		return nil, nil, 0, err
	}
	return in, tg, n, nil
}

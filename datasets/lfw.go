package datasets

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Partition names.
const (
	PartitionTrain = "train"
	PartitionValid = "valid"
	PartitionTest  = "test"
)

// Defaults for the occluded faces dataset: 32x32 images on both sides.
const (
	DefaultPrefix     = "occluded_faces_lfw"
	DefaultInputSize  = 1024
	DefaultTargetSize = 1024
)

// Lengths holds the expected record count of each partition.
type Lengths struct {
	Train int
	Valid int
	Test  int
}

// DefaultLengths are the partition sizes of the published dataset.
var DefaultLengths = Lengths{Train: 11089, Valid: 1149, Test: 1117}

// Of returns the length declared for the named partition.
func (l Lengths) Of(name string) (int, error) {
	switch name {
	case PartitionTrain:
		return l.Train, nil
	case PartitionValid:
		return l.Valid, nil
	case PartitionTest:
		return l.Test, nil
	}
	return 0, errors.Wrapf(ErrUnknownPartition, "%q", name)
}

// Metadata describes one partition.
type Metadata struct {
	InputSize  int
	TargetSize int
	Length     int
}

// Partition pairs a collection with its metadata.
type Partition struct {
	Name       string
	Collection Collection
	Metadata   Metadata
}

// Splits holds the three partitions of the dataset.
type Splits struct {
	Train Partition
	Valid Partition
	Test  Partition
}

// Get returns the partition called name.
func (s *Splits) Get(name string) (Partition, error) {
	switch name {
	case PartitionTrain:
		return s.Train, nil
	case PartitionValid:
		return s.Valid, nil
	case PartitionTest:
		return s.Test, nil
	}
	return Partition{}, errors.Wrapf(ErrUnknownPartition, "%q", name)
}

// Partitions returns train, valid and test in that order.
func (s *Splits) Partitions() [3]Partition {
	return [3]Partition{s.Train, s.Valid, s.Test}
}

// Config controls how the dataset is located and loaded.
type Config struct {
	// Dir holds the partition files. A leading "~" is expanded.
	Dir string

	// Prefix of the partition files: <Dir>/<Prefix>_<partition>.txt.
	Prefix string

	InputSize  int
	TargetSize int

	// Lengths are the declared partition sizes. They become the Metadata
	// lengths and the sizes of materialized tables.
	Lengths Lengths

	// LoadToMemory materializes every partition while loading.
	LoadToMemory bool

	// Parallel materializes the three partitions concurrently.
	Parallel bool

	// VerifyLengths counts the lines of every streaming partition up front
	// and fails when they differ from Lengths. Materialized partitions are
	// always verified.
	VerifyLengths bool

	// Logger receives progress messages. Defaults to the logrus standard
	// logger.
	Logger logrus.FieldLogger
}

// DefaultConfig returns the configuration of the published dataset stored
// in dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:        dir,
		Prefix:     DefaultPrefix,
		InputSize:  DefaultInputSize,
		TargetSize: DefaultTargetSize,
		Lengths:    DefaultLengths,
	}
}

// Validate checks the configuration for values Load cannot use.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.New("dataset directory is empty")
	}
	if c.Prefix == "" {
		return errors.New("partition file prefix is empty")
	}
	if c.InputSize <= 0 || c.TargetSize <= 0 {
		return errors.Errorf("vector sizes must be positive, got input %d target %d", c.InputSize, c.TargetSize)
	}
	for _, name := range partitionNames {
		l, _ := c.Lengths.Of(name)
		if l < 0 {
			return errors.Errorf("%s length must not be negative, got %d", name, l)
		}
	}
	return nil
}

// PartitionPath returns the file holding the named partition.
func (c *Config) PartitionPath(name string) string {
	return filepath.Join(c.Dir, c.Prefix+"_"+name+".txt")
}

func (c *Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

var partitionNames = [3]string{PartitionTrain, PartitionValid, PartitionTest}

// Load opens the occluded faces dataset stored in dir. When loadToMemory is
// true every partition is materialized, otherwise partitions stream from
// their files.
func Load(dir string, loadToMemory bool) (*Splits, error) {
	cfg := DefaultConfig(dir)
	cfg.LoadToMemory = loadToMemory
	return LoadWithConfig(cfg)
}

// LoadWithConfig opens the dataset described by cfg. Either every partition
// loads or an error is returned.
func LoadWithConfig(cfg Config) (*Splits, error) {
	dir, err := ExpandPath(cfg.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid dataset config")
	}
	log := cfg.logger()
	codec := NewLineCodec(cfg.InputSize, cfg.TargetSize)

	var parts [3]Partition
	for i, name := range partitionNames {
		path := cfg.PartitionPath(name)
		if err := checkReadable(path); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s partition", name)
		}
		length, _ := cfg.Lengths.Of(name)
		stream := NewStreamingCollection(FileSource{Path: path}, codec, length)
		if cfg.VerifyLengths && !cfg.LoadToMemory {
			n, err := CountLines(stream.Source())
			if err != nil {
				return nil, err
			}
			if n != length {
				return nil, errors.Wrapf(ErrLengthMismatch, "failed to verify %s: declared %d records, found %d lines", path, length, n)
			}
		}
		parts[i] = Partition{
			Name:       name,
			Collection: stream,
			Metadata:   Metadata{InputSize: cfg.InputSize, TargetSize: cfg.TargetSize, Length: length},
		}
		log.WithFields(logrus.Fields{"partition": name, "path": path, "length": length}).Debug("resolved partition")
	}

	if cfg.LoadToMemory {
		if err := materializeAll(&parts, cfg.Parallel, log); err != nil {
			return nil, err
		}
	}

	return &Splits{Train: parts[0], Valid: parts[1], Test: parts[2]}, nil
}

// checkReadable fails unless path is a regular file that can be opened for
// reading.
func checkReadable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	if !fi.Mode().IsRegular() {
		return errors.Wrapf(ErrNotRegularFile, "failed to open %s: mode %s", path, fi.Mode())
	}
	rc, err := FileSource{Path: path}.Open()
	if err != nil {
		return err
	}
	return rc.Close()
}

// materializeAll replaces every streaming partition with its materialized
// table. In parallel mode the first failure cancels the other partitions.
func materializeAll(parts *[3]Partition, parallel bool, log logrus.FieldLogger) error {
	load := func(ctx context.Context, p *Partition) error {
		m, err := materialize(ctx, p.Collection, p.Metadata.Length)
		if err != nil {
			return errors.Wrapf(err, "failed to load %s partition", p.Name)
		}
		p.Collection = m
		log.WithFields(logrus.Fields{
			"partition": p.Name,
			"length":    m.Len(),
			"bytes":     humanize.Bytes(uint64(m.SizeBytes())),
		}).Info("materialized partition")
		return nil
	}

	if !parallel {
		for i := range parts {
			if err := load(context.Background(), &parts[i]); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	for i := range parts {
		p := &parts[i]
		g.Go(func() error { return load(ctx, p) })
	}
	return g.Wait()
}

// Package check is the consistency-check and repair engine. A run marks every
// cluster reachable from the directory tree, recovers allocated chains nothing
// points at as FOUND<n>.DAT files in the root directory, and truncates file
// chains that are longer than the file's declared size needs.
//
// Repairs are written to the volume as soon as they're made and are never
// rolled back, not even when the run later stops on fatal corruption.
package check

import (
	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/volume"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// DefaultMaxDepth is how deeply directories may be nested before the walk
// gives up on a branch.
const DefaultMaxDepth = 64

type Options struct {
	// MaxDepth limits directory nesting. Zero or less means DefaultMaxDepth.
	MaxDepth int
	// RecoverLostFiles enables creating FOUND<n>.DAT entries for lost chains.
	RecoverLostFiles bool
	// RepairLengths enables truncating chains longer than their file's size.
	RepairLengths bool
}

// DefaultOptions enables every repair.
func DefaultOptions() Options {
	return Options{
		MaxDepth:         DefaultMaxDepth,
		RecoverLostFiles: true,
		RepairLengths:    true,
	}
}

// LostFile is an allocated chain that no directory entry referred to.
type LostFile struct {
	// Cluster is the first cluster of the chain.
	Cluster volume.ClusterID
	// Length is the length of the chain, in clusters.
	Length uint
	// Name is the name of the root directory entry created for the chain.
	Name string
}

// Mismatch is a file whose chain was longer than its declared size needed.
type Mismatch struct {
	// Path is the directory holding the file, e.g. "/" or "/SUBDIR/".
	Path string
	Name string
	// DeclaredSize is the size from the directory entry, in bytes.
	DeclaredSize uint32
	// ActualSize is the length of the chain before truncation, in bytes.
	ActualSize uint64
	StartCluster volume.ClusterID
	// ChainLength and NewLength are the chain's length in clusters before and
	// after truncation.
	ChainLength uint
	NewLength   uint
}

// Reporter receives findings as soon as the checker makes them.
type Reporter interface {
	Unreferenced(clusters []volume.ClusterID)
	LostFile(lost LostFile)
	LengthMismatch(mismatch Mismatch)
	Problem(err error)
}

type nopReporter struct{}

func (nopReporter) Unreferenced([]volume.ClusterID) {}
func (nopReporter) LostFile(LostFile)               {}
func (nopReporter) LengthMismatch(Mismatch)         {}
func (nopReporter) Problem(error)                   {}

// Result holds everything a run found. Problems aggregates the local
// corruption that was reported and skipped over.
type Result struct {
	Unreferenced []volume.ClusterID
	LostFiles    []LostFile
	Mismatches   []Mismatch
	Problems     *multierror.Error
}

// Checker is the single user of a Volume for the length of a run. It isn't
// safe for concurrent use.
type Checker struct {
	vol        *volume.Volume
	options    Options
	reporter   Reporter
	chains     *chainWalker
	problems   *multierror.Error
	seen       map[string]struct{}
	foundIndex int
}

// New creates a Checker for `vol`. A nil reporter discards all findings; they
// still end up in the Result returned by Run.
func New(vol *volume.Volume, options Options, reporter Reporter) *Checker {
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Checker{
		vol:      vol,
		options:  options,
		reporter: reporter,
		chains:   newChainWalker(vol),
		seen:     map[string]struct{}{},
	}
}

// Problems returns the local corruption reported so far, or nil if there was
// none.
func (c *Checker) Problems() *multierror.Error {
	return c.problems
}

// handle sorts an error from a walk. Local corruption is reported and nil is
// returned so the walk carries on; anything else is returned as-is.
func (c *Checker) handle(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsFatal(err) {
		return err
	}
	c.problem(err)
	return nil
}

// problem records a local corruption. Each walk over the tree finds the same
// damage again, so a problem already reported is not reported twice.
func (c *Checker) problem(err error) {
	message := err.Error()
	if _, ok := c.seen[message]; ok {
		zap.L().Sugar().Debugf("already reported: %s", message)
		return
	}
	c.seen[message] = struct{}{}

	zap.L().Sugar().Debugf("problem: %s", message)
	c.problems = multierror.Append(c.problems, err)
	c.reporter.Problem(err)
}

// Run marks referenced clusters, lists the unreferenced ones, then recovers
// lost files and repairs length mismatches as enabled by the options.
//
// The result is returned even if the run stops early. Repairs made before a
// fatal error stay on the volume.
func (c *Checker) Run() (*Result, error) {
	result := &Result{}
	defer func() { result.Problems = c.problems }()

	geometry := c.vol.Geometry()
	zap.L().Sugar().Infof(
		"checking FAT%d volume, media %#02x, %d clusters of %d bytes",
		geometry.FATBits,
		c.vol.BootSector().Media,
		geometry.TotalClusters(),
		geometry.BytesPerCluster())

	reach, err := c.MarkReferenced(volume.RootDirCluster)
	if err != nil {
		return result, err
	}

	result.Unreferenced, err = c.Unreferenced(reach)
	if err != nil {
		return result, err
	}
	if len(result.Unreferenced) > 0 {
		c.reporter.Unreferenced(result.Unreferenced)
	}

	if c.options.RecoverLostFiles {
		result.LostFiles, err = c.RecoverLostFiles(reach)
		if err != nil {
			return result, err
		}
	}

	if c.options.RepairLengths {
		result.Mismatches, err = c.RepairLengthMismatches(volume.RootDirCluster)
		if err != nil {
			return result, err
		}
	}

	problemCount := 0
	if c.problems != nil {
		problemCount = len(c.problems.Errors)
	}
	zap.L().Sugar().Infof(
		"check finished: %d unreferenced clusters, %d lost files, %d length mismatches, %d problems",
		len(result.Unreferenced),
		len(result.LostFiles),
		len(result.Mismatches),
		problemCount)
	return result, nil
}

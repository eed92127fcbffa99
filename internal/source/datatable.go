// Package source defines the scan contract pluggable data sources
// implement, and the two partitioning strategies this build ships:
// fixed-stripe row-group round robin (Parquet) and single-producer with
// empty-tail scans (Postgres COPY, which cannot be split cheaply).
package source

import (
	"context"

	"github.com/bulletdb/bulletdb/internal/bullet"
)

// DataTable is the factory for one table's worth of parallel scans: given a
// requested partition count, it returns exactly that many DataTableScan
// values, each responsible for a disjoint slice of the table's rows.
type DataTable interface {
	Schema() []bullet.StructField
	Scan(ctx context.Context, numPartitions int) ([]DataTableScan, error)
}

// DataTableScan pulls batches for one partition of a scan. Pull returns
// (nil, nil) once this partition is exhausted.
type DataTableScan interface {
	Pull(ctx context.Context) (*bullet.Batch, error)
}

// FixedStripes splits n identical units of work (row groups, file splits)
// across numPartitions partitions round robin, the shape a source uses
// when its underlying storage can be split along natural boundaries.
func FixedStripes(n, numPartitions int) [][]int {
	stripes := make([][]int, numPartitions)
	for i := 0; i < n; i++ {
		p := i % numPartitions
		stripes[p] = append(stripes[p], i)
	}
	return stripes
}

// SingleProducerEmptyTail is the partitioning a source uses when its
// underlying stream cannot be split cheaply (a single Postgres COPY
// stream): partition 0 gets a live scan over the whole stream, every other
// partition gets a scan that is already exhausted.
func SingleProducerEmptyTail(numPartitions int, producer DataTableScan) []DataTableScan {
	scans := make([]DataTableScan, numPartitions)
	scans[0] = producer
	for i := 1; i < numPartitions; i++ {
		scans[i] = emptyScan{}
	}
	return scans
}

type emptyScan struct{}

func (emptyScan) Pull(ctx context.Context) (*bullet.Batch, error) { return nil, nil }

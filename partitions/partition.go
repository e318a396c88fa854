package partitions

import (
	"fmt"
)

// Partition is a block of independent work items, mesh rows or path points,
// evaluated together by one worker
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Item membership
	Items    []int // Global item indices in this partition, ascending
	NumItems int   // Actual number of items
	MaxItems int   // Largest NumItems across the layout
}

// PartitionLayout manages the complete decomposition of the work items
type PartitionLayout struct {
	// All partitions
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(NumItems) across all partitions
	TotalItems    int // Sum of all items across partitions
	NumPartitions int // Total number of partitions

	// Item to partition mapping
	IToP []int // Length TotalItems: item k belongs to partition IToP[k]
}

// GetPartition returns the partition containing item k
func (pl *PartitionLayout) GetPartition(item int) int {
	if item < 0 || item >= len(pl.IToP) {
		return -1
	}
	return pl.IToP[item]
}

// ValidateLayout checks partition consistency: every item is owned exactly
// once and KpartMax matches the partitions
func (pl *PartitionLayout) ValidateLayout() error {
	actualMax := 0
	seen := make([]bool, pl.TotalItems)
	for _, p := range pl.Partitions {
		if p.NumItems > actualMax {
			actualMax = p.NumItems
		}
		if p.MaxItems != pl.KpartMax {
			return fmt.Errorf("partition %d: MaxItems %d != KpartMax %d",
				p.ID, p.MaxItems, pl.KpartMax)
		}
		if p.NumItems != len(p.Items) {
			return fmt.Errorf("partition %d: NumItems %d != len(Items) %d",
				p.ID, p.NumItems, len(p.Items))
		}
		for _, k := range p.Items {
			if k < 0 || k >= pl.TotalItems {
				return fmt.Errorf("partition %d: item %d out of range", p.ID, k)
			}
			if seen[k] {
				return fmt.Errorf("partition %d: item %d assigned twice", p.ID, k)
			}
			seen[k] = true
		}
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}
	for k, ok := range seen {
		if !ok {
			return fmt.Errorf("item %d not assigned", k)
		}
	}
	return nil
}

package partitions

import (
	"fmt"
	"math"
	"runtime"
)

// PartitionBuilder splits a range of work items into partitions
type PartitionBuilder struct {
	NumItems int

	// Partitioning parameters
	TargetPartitionSize int // Desired items per partition
	Strategy            PartitionStrategy
}

// PartitionStrategy defines how items are grouped
type PartitionStrategy int

const (
	BlockPartition PartitionStrategy = iota // Consecutive items
	RoundRobin                              // Distribute cyclically
)

func (s PartitionStrategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round-robin"
	}
	return fmt.Sprintf("PartitionStrategy(%d)", int(s))
}

// ForWorkers builds a layout with one partition per worker, capped by the
// number of items. workers <= 0 selects GOMAXPROCS.
func ForWorkers(numItems, workers int, strategy PartitionStrategy) (*PartitionLayout, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numItems {
		workers = numItems
	}
	if workers < 1 {
		workers = 1
	}
	pb := &PartitionBuilder{
		NumItems:            numItems,
		TargetPartitionSize: int(math.Ceil(float64(numItems) / float64(workers))),
		Strategy:            strategy,
	}
	return pb.BuildPartitions()
}

// BuildPartitions creates a partition layout
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumItems <= 0 {
		return nil, fmt.Errorf("invalid item count %d", pb.NumItems)
	}

	// Determine number of partitions needed
	numPartitions := pb.calculateNumPartitions()

	// Partition the items
	iToP := pb.partitionItems(numPartitions)

	// Create partition structures
	partitions := pb.createPartitions(iToP, numPartitions)

	kpartMax := pb.calculateKpartMax(partitions)
	for i := range partitions {
		partitions[i].MaxItems = kpartMax
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalItems:    pb.NumItems,
		NumPartitions: numPartitions,
		IToP:          iToP,
	}

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}

	return layout, nil
}

// calculateNumPartitions determines the partition count
func (pb *PartitionBuilder) calculateNumPartitions() int {
	size := pb.TargetPartitionSize
	if size < 1 {
		size = 1
	}
	numPartitions := int(math.Ceil(float64(pb.NumItems) / float64(size)))

	// Ensure at least one partition
	if numPartitions < 1 {
		numPartitions = 1
	}

	return numPartitions
}

// partitionItems assigns items to partitions
func (pb *PartitionBuilder) partitionItems(numPartitions int) []int {
	iToP := make([]int, pb.NumItems)

	switch pb.Strategy {
	case RoundRobin:
		// Distribute items cyclically, evens out cost that varies along the mesh
		for i := 0; i < pb.NumItems; i++ {
			iToP[i] = i % numPartitions
		}

	default:
		itemsPerPartition := int(math.Ceil(float64(pb.NumItems) / float64(numPartitions)))
		for i := 0; i < pb.NumItems; i++ {
			iToP[i] = i / itemsPerPartition
			if iToP[i] >= numPartitions {
				iToP[i] = numPartitions - 1
			}
		}
	}

	return iToP
}

// createPartitions builds partition structures from item assignments
func (pb *PartitionBuilder) createPartitions(iToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)

	for i := range partitions {
		partitions[i] = Partition{
			ID:    i,
			Items: make([]int, 0),
		}
	}

	for item, part := range iToP {
		partitions[part].Items = append(partitions[part].Items, item)
		partitions[part].NumItems++
	}

	return partitions
}

// calculateKpartMax finds maximum items across all partitions
func (pb *PartitionBuilder) calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumItems > kpartMax {
			kpartMax = p.NumItems
		}
	}
	return kpartMax
}

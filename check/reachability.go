package check

import (
	"github.com/boljen/go-bitmap"
	"github.com/dargueta/scandisk/volume"
)

// Reachability records, for every cluster on the volume, whether it can be
// reached from the directory tree. It's built once per run and never stored on
// disk.
type Reachability struct {
	referenced    bitmap.Bitmap
	totalClusters uint
}

// NewReachability creates a table with every cluster marked unreferenced.
func NewReachability(totalClusters uint) *Reachability {
	return &Reachability{
		referenced:    bitmap.New(int(totalClusters)),
		totalClusters: totalClusters,
	}
}

// IsReferenced returns true if the cluster has been marked. Clusters outside
// the volume are never referenced.
func (r *Reachability) IsReferenced(cluster volume.ClusterID) bool {
	if uint(cluster) >= r.totalClusters {
		return false
	}
	return r.referenced.Get(int(cluster))
}

// Mark flags a cluster as referenced. Clusters outside the volume are ignored.
func (r *Reachability) Mark(cluster volume.ClusterID) {
	if uint(cluster) < r.totalClusters {
		r.referenced.Set(int(cluster), true)
	}
}

// Len is the number of clusters the table covers.
func (r *Reachability) Len() uint {
	return r.totalClusters
}

// Count gives the number of clusters marked referenced.
func (r *Reachability) Count() uint {
	count := uint(0)
	for i := uint(0); i < r.totalClusters; i++ {
		if r.referenced.Get(int(i)) {
			count++
		}
	}
	return count
}

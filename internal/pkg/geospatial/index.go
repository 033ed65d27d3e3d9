package geospatial

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
)

const (
	dimensions  = 2
	minChildren = 4
	maxChildren = 16
)

// boxItem wraps an id and its rectangle for R-tree indexing.
type boxItem struct {
	id   int
	rect rtreego.Rect
}

func (b *boxItem) Bounds() rtreego.Rect {
	return b.rect
}

// BoxIndex is an R-tree over integer-keyed (lat, lon) boxes.
type BoxIndex struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	size int
}

// NewBoxIndex creates an empty index.
func NewBoxIndex() *BoxIndex {
	return &BoxIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
}

func rect(minLat, minLon, maxLat, maxLon float64) (rtreego.Rect, error) {
	r, err := rtreego.NewRectFromPoints(rtreego.Point{minLat, minLon}, rtreego.Point{maxLat, maxLon})
	if err != nil {
		return rtreego.Rect{}, fmt.Errorf("invalid box: %w", err)
	}
	return r, nil
}

// Insert adds a box under id.
func (x *BoxIndex) Insert(id int, minLat, minLon, maxLat, maxLon float64) error {
	r, err := rect(minLat, minLon, maxLat, maxLon)
	if err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tree.Insert(&boxItem{id: id, rect: r})
	x.size++
	return nil
}

// Search returns the ids of all boxes intersecting the query box, in
// ascending order.
func (x *BoxIndex) Search(minLat, minLon, maxLat, maxLon float64) ([]int, error) {
	r, err := rect(minLat, minLon, maxLat, maxLon)
	if err != nil {
		return nil, err
	}
	x.mu.RLock()
	results := x.tree.SearchIntersect(r)
	x.mu.RUnlock()

	ids := make([]int, 0, len(results))
	for _, res := range results {
		if item, ok := res.(*boxItem); ok {
			ids = append(ids, item.id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// Len returns the number of indexed boxes.
func (x *BoxIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.size
}

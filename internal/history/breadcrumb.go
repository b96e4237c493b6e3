// Package history implements a bounded, log-bucketed cache of recent
// (params, image) pairs indexed by zoom level, supplementing the
// asynchronous handler's layout fallback: instead of only ever resizing
// from the single most recent frame, a user zooming back out can be
// served from a real ancestor image at roughly the right scale.
package history

import (
	"math"
	"sort"
	"sync"

	"github.com/oriys/newtonfractal/internal/domain"
)

// Element is one cached (params, image) pair.
type Element struct {
	Params domain.Params
	Image  *domain.RGBImage
}

// Trail is a bounded history of elements bucketed by log(r_range), so
// that nearby zoom levels collide into the same bucket and only the most
// recent at each level is kept.
type Trail struct {
	maxElements int
	bucketSize  float64

	mu                 sync.Mutex
	buckets            map[int]Element
	lastInsertedParams *domain.Params
}

// New returns an empty Trail holding up to maxElements buckets, where
// adjacent buckets differ by a zoom factor of bucketSize.
func New(maxElements int, bucketSize float64) *Trail {
	return &Trail{maxElements: maxElements, bucketSize: bucketSize, buckets: make(map[int]Element)}
}

func (t *Trail) bucket(p domain.Params) int {
	scale := math.Log(p.RRange) / math.Log(t.bucketSize)
	if scale >= 0 {
		return int(scale + 0.5)
	}
	return int(scale - 0.5)
}

// Insert records element, keyed by its zoom bucket. If the params
// changed by more than viewport since the last insert (new polynomial,
// resolution, etc.), the whole trail is cleared first: ancestors from a
// different fractal are not useful layout sources.
func (t *Trail) Insert(element Element) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastInsertedParams != nil && !domain.ViewportOnlyDiffer(element.Params, *t.lastInsertedParams) {
		t.buckets = make(map[int]Element)
	}

	b := t.bucket(element.Params)
	t.buckets[b] = element
	params := element.Params
	t.lastInsertedParams = &params

	if len(t.buckets) > t.maxElements {
		t.evictFurthest(b)
	}
}

// evictFurthest drops the bucket key farthest from keep, once the trail
// exceeds its capacity.
func (t *Trail) evictFurthest(keep int) {
	keys := make([]int, 0, len(t.buckets))
	for k := range t.buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return absInt(keys[i]-keep) > absInt(keys[j]-keep)
	})
	delete(t.buckets, keys[0])
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// GetNextLargest returns the cached element whose r_range is at least as
// large as query's, differing from query only by viewport, if one
// exists. This is the "more zoomed out ancestor" lookup the asynchronous
// handler's layout stage uses as a richer fallback than the immediately
// preceding frame.
func (t *Trail) GetNextLargest(query domain.Params) (Element, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	queryBucket := t.bucket(query)
	best := -1
	for b := range t.buckets {
		if b < queryBucket || t.buckets[b].Params.RRange < query.RRange {
			continue
		}
		if best == -1 || b < best {
			best = b
		}
	}
	if best == -1 {
		return Element{}, false
	}
	el := t.buckets[best]
	if el.Params.RRange < query.RRange {
		return Element{}, false
	}
	if !domain.ViewportOnlyDiffer(query, el.Params) {
		return Element{}, false
	}
	return el, true
}

// Clear empties the trail.
func (t *Trail) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets = make(map[int]Element)
	t.lastInsertedParams = nil
}

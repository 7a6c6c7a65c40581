package geo

import (
	"fmt"
	"math"
)

// maxQueryMiles is a hair over half the Earth's circumference on the sphere
// we compute with. A radius this large covers every indexed point.
const maxQueryMiles = math.Pi * EarthRadiusMiles

const kdNodeSize = 64

// KDTree is a flat kd-tree over entry coordinates: ids and interleaved
// lon/lat pairs kept in parallel slices, partitioned in place with median
// selection. Radius queries walk the tree with a degree-space bounding box
// and then filter candidates by exact haversine distance, so the output
// ordering is identical to ScanIndex's.
type KDTree struct {
	entries []Entry
	idxs    []int
	coords  []float64 // interleaved lon, lat
	dirty   bool
}

// NewKDTree builds a kd-tree index, skipping entries without a location.
func NewKDTree(entries []Entry) *KDTree {
	t := &KDTree{}
	for _, e := range entries {
		t.Insert(e)
	}
	t.build()
	return t
}

// Insert adds an entry. Entries with a nil point are silently skipped.
// The tree is rebuilt lazily on the next query.
func (t *KDTree) Insert(e Entry) {
	if e.Point == nil {
		return
	}
	t.entries = append(t.entries, e)
	t.dirty = true
}

func (t *KDTree) Len() int { return len(t.entries) }

func (t *KDTree) QueryRadius(p Point, radiusMiles float64, limit int) ([]Result, error) {
	if err := validateQuery(p, limit); err != nil {
		return nil, err
	}
	if radiusMiles <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidArgument, radiusMiles)
	}
	if len(t.entries) == 0 {
		return []Result{}, nil
	}
	t.build()

	results := t.collectWithin(p, radiusMiles)
	sortResults(results)
	return truncate(results, limit), nil
}

// QueryNearest runs an expanding-radius search: grow the box until at least
// limit candidates fall inside or the box covers the whole index, then sort
// and cut. Growing by 4x keeps the number of passes small.
func (t *KDTree) QueryNearest(p Point, limit int) ([]Result, error) {
	if err := validateQuery(p, limit); err != nil {
		return nil, err
	}
	if len(t.entries) == 0 {
		return []Result{}, nil
	}
	t.build()

	for radius := 5.0; ; radius *= 4 {
		results := t.collectWithin(p, radius)
		if len(results) >= limit || radius >= maxQueryMiles {
			sortResults(results)
			return truncate(results, limit), nil
		}
	}
}

func (t *KDTree) collectWithin(p Point, radiusMiles float64) []Result {
	minLon, minLat, maxLon, maxLat := boundingBox(p, radiusMiles)

	results := []Result{}
	for _, i := range t.rangeIdxs(minLon, minLat, maxLon, maxLat) {
		e := t.entries[i]
		d := Haversine(p, *e.Point)
		if d <= radiusMiles {
			results = append(results, Result{Entry: e, DistanceMiles: d})
		}
	}
	return results
}

// boundingBox converts a mile radius around p into a containing lat/lon box.
// The longitude span uses the weakest cosine in the latitude band so the box
// always contains the true circle; near the poles it degrades to the full
// longitude range rather than trying to wrap across the antimeridian.
func boundingBox(p Point, radiusMiles float64) (minLon, minLat, maxLon, maxLat float64) {
	dLat := radiusMiles / milesPerDegreeLat
	minLat = math.Max(p.Lat-dLat, -90)
	maxLat = math.Min(p.Lat+dLat, 90)

	edge := math.Max(math.Abs(minLat), math.Abs(maxLat))
	c := math.Cos(edge * math.Pi / 180)
	if c <= 1e-9 {
		return -180, minLat, 180, maxLat
	}

	dLon := radiusMiles / (milesPerDegreeLat * c)
	if dLon >= 180 || p.Lon-dLon < -180 || p.Lon+dLon > 180 {
		return -180, minLat, 180, maxLat
	}
	return p.Lon - dLon, minLat, p.Lon + dLon, maxLat
}

func (t *KDTree) build() {
	if !t.dirty {
		return
	}
	t.idxs = make([]int, len(t.entries))
	t.coords = make([]float64, 2*len(t.entries))
	for i, e := range t.entries {
		t.idxs[i] = i
		t.coords[2*i] = e.Point.Lon
		t.coords[2*i+1] = e.Point.Lat
	}
	kdSort(t.idxs, t.coords, kdNodeSize, 0, len(t.idxs)-1, 0)
	t.dirty = false
}

// rangeIdxs returns the indexes of all entries inside the box, walking the
// implicit tree with an explicit stack of (left, right, axis) frames.
func (t *KDTree) rangeIdxs(minX, minY, maxX, maxY float64) []int {
	if len(t.idxs) == 0 {
		return nil
	}

	stack := []int{0, len(t.idxs) - 1, 0}
	var found []int

	for len(stack) > 0 {
		axis := stack[len(stack)-1]
		right := stack[len(stack)-2]
		left := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		if right-left <= kdNodeSize {
			for i := left; i <= right; i++ {
				x, y := t.coords[2*i], t.coords[2*i+1]
				if x >= minX && x <= maxX && y >= minY && y <= maxY {
					found = append(found, t.idxs[i])
				}
			}
			continue
		}

		m := (left + right) / 2
		x, y := t.coords[2*m], t.coords[2*m+1]
		if x >= minX && x <= maxX && y >= minY && y <= maxY {
			found = append(found, t.idxs[m])
		}

		nextAxis := (axis + 1) % 2
		if (axis == 0 && minX <= x) || (axis != 0 && minY <= y) {
			stack = append(stack, left, m-1, nextAxis)
		}
		if (axis == 0 && maxX >= x) || (axis != 0 && maxY >= y) {
			stack = append(stack, m+1, right, nextAxis)
		}
	}
	return found
}

func kdSort(idxs []int, coords []float64, nodeSize, left, right, depth int) {
	if right-left <= nodeSize {
		return
	}
	m := (left + right) / 2
	kdSelect(idxs, coords, m, left, right, depth%2)
	kdSort(idxs, coords, nodeSize, left, m-1, depth+1)
	kdSort(idxs, coords, nodeSize, m+1, right, depth+1)
}

// kdSelect partially sorts so coords[k] lands in its sorted position along
// the given axis (0 = lon, 1 = lat). Floyd-Rivest selection.
func kdSelect(idxs []int, coords []float64, k, left, right, axis int) {
	for right > left {
		if right-left > 600 {
			n := float64(right - left + 1)
			m := float64(k - left + 1)
			z := math.Log(n)
			s := 0.5 * math.Exp(2*z/3)
			sd := 0.5 * math.Sqrt(z*s*(n-s)/n)
			if m-n/2 < 0 {
				sd = -sd
			}
			newLeft := max(left, int(math.Floor(float64(k)-m*s/n+sd)))
			newRight := min(right, int(math.Floor(float64(k)+(n-m)*s/n+sd)))
			kdSelect(idxs, coords, k, newLeft, newRight, axis)
		}

		pivot := coords[2*k+axis]
		i, j := left, right

		kdSwap(idxs, coords, left, k)
		if coords[2*right+axis] > pivot {
			kdSwap(idxs, coords, left, right)
		}

		for i < j {
			kdSwap(idxs, coords, i, j)
			i++
			j--
			for coords[2*i+axis] < pivot {
				i++
			}
			for coords[2*j+axis] > pivot {
				j--
			}
		}

		if coords[2*left+axis] == pivot {
			kdSwap(idxs, coords, left, j)
		} else {
			j++
			kdSwap(idxs, coords, j, right)
		}

		if j <= k {
			left = j + 1
		}
		if k <= j {
			right = j - 1
		}
	}
}

func kdSwap(idxs []int, coords []float64, i, j int) {
	idxs[i], idxs[j] = idxs[j], idxs[i]
	coords[2*i], coords[2*j] = coords[2*j], coords[2*i]
	coords[2*i+1], coords[2*j+1] = coords[2*j+1], coords[2*i+1]
}

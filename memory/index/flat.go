// Package index provides an exact nearest-neighbor index over fixed-dimension
// float32 vectors, searched by squared Euclidean distance.
//
// Exact search is a deliberate choice: tier sizes in the memory system stay
// small (the short-term tier is bounded by the promotion threshold and the
// long-term tier only grows by one summary per promotion), so accuracy wins
// over asymptotic scale.
package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// DimensionError reports a vector whose length does not match the index
// dimension.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("index: vector dimension %d does not match index dimension %d", e.Got, e.Want)
}

// Neighbor is one search result: the ordinal position of a stored vector and
// its squared L2 distance to the query.
type Neighbor struct {
	Position int
	Distance float32
}

// Flat is an exact squared-L2 index. Vectors are assigned ordinal positions
// in insertion order, starting at 0 and restarting at 0 after Reset.
type Flat struct {
	dim  int
	data []float32 // packed row-major, len(data) == dim * count
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index: dimension must be positive, got %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dim returns the configured vector dimension.
func (f *Flat) Dim() int {
	return f.dim
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	return len(f.data) / f.dim
}

// Add appends one vector. The index is unchanged when the vector's length
// does not match the index dimension.
func (f *Flat) Add(vec []float32) error {
	if len(vec) != f.dim {
		return &DimensionError{Want: f.dim, Got: len(vec)}
	}
	f.data = append(f.data, vec...)
	return nil
}

// Search returns up to k stored vectors nearest to query, ascending by
// squared L2 distance with ties broken by insertion position. An empty index
// yields no results and no error.
func (f *Flat) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != f.dim {
		return nil, &DimensionError{Want: f.dim, Got: len(query)}
	}
	n := f.Len()
	if n == 0 || k <= 0 {
		return nil, nil
	}

	neighbors := make([]Neighbor, n)
	for i := 0; i < n; i++ {
		row := f.data[i*f.dim : (i+1)*f.dim]
		var dist float32
		for j, q := range query {
			d := row[j] - q
			dist += d * d
		}
		neighbors[i] = Neighbor{Position: i, Distance: dist}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if k < n {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// Reset discards all vectors. The next Add starts a fresh ordinal sequence
// from position 0.
func (f *Flat) Reset() {
	f.data = f.data[:0]
}

const (
	flatMagic   uint32 = 0x464c4154 // "FLAT"
	flatVersion uint32 = 1
)

// Serialize encodes the index as a portable little-endian snapshot.
// Deserialize on the result reproduces identical search behavior.
func (f *Flat) Serialize() ([]byte, error) {
	n := f.Len()
	buf := make([]byte, 16+len(f.data)*4)
	binary.LittleEndian.PutUint32(buf[0:4], flatMagic)
	binary.LittleEndian.PutUint32(buf[4:8], flatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(f.dim))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(n))
	for i, v := range f.data {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(v))
	}
	return buf, nil
}

// Deserialize decodes a snapshot produced by Serialize.
func Deserialize(data []byte) (*Flat, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("index: snapshot truncated (%d bytes)", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != flatMagic {
		return nil, fmt.Errorf("index: bad snapshot magic %#x", magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != flatVersion {
		return nil, fmt.Errorf("index: unsupported snapshot version %d", version)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	count := int(binary.LittleEndian.Uint32(data[12:16]))
	if dim <= 0 {
		return nil, fmt.Errorf("index: snapshot has invalid dimension %d", dim)
	}
	want := 16 + dim*count*4
	if len(data) != want {
		return nil, fmt.Errorf("index: snapshot length %d does not match header (want %d)", len(data), want)
	}

	f := &Flat{dim: dim, data: make([]float32, dim*count)}
	for i := range f.data {
		f.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[16+i*4:]))
	}
	return f, nil
}

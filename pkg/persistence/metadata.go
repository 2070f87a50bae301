package persistence

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Metadata keys, following the zarr v2 store layout.
const (
	// keyAttributes stores user attributes of a group or of the root
	keyAttributes = ".zattrs"
	// keyArray stores the array metadata of an array node
	keyArray = ".zarray"
)

// dtype strings in numpy typestr form
const (
	dtypeBool    = "|b1"
	dtypeFloat64 = "<f8"
)

func isMetaKey(key string) bool {
	base := path.Base(key)
	return base == keyAttributes || base == keyArray
}

// rootAttributes are stored under the root ".zattrs" key.
type rootAttributes struct {
	Version      *int    `json:"version,omitempty"`
	Description  string  `json:"description"`
	CreationTime float64 `json:"creation_time"`
}

// maskAttributes describe one version 1 ROI group.
type maskAttributes struct {
	Index *int   `json:"index"`
	Name  string `json:"name"`
}

// polyAttributes describe one version 0 ROI record.
type polyAttributes struct {
	Name     string `json:"name"`
	ViewDims []int  `json:"viewdims"`
	ArrSlc   []int  `json:"arrslc"`
}

// compressorMeta identifies the chunk codec.
type compressorMeta struct {
	ID    string `json:"id"`
	Level int    `json:"level,omitempty"`
}

// arrayMeta is the subset of zarr array metadata the container uses. Every
// array is stored as a single C order chunk.
type arrayMeta struct {
	ZarrFormat int             `json:"zarr_format"`
	Shape      []int           `json:"shape"`
	Chunks     []int           `json:"chunks"`
	Dtype      string          `json:"dtype"`
	Compressor *compressorMeta `json:"compressor"`
	FillValue  interface{}     `json:"fill_value"`
	Order      string          `json:"order"`
	Filters    []interface{}   `json:"filters"`
}

func newArrayMeta(shape []int, dtype string, level int) arrayMeta {
	return arrayMeta{
		ZarrFormat: 2,
		Shape:      append([]int(nil), shape...),
		Chunks:     append([]int(nil), shape...),
		Dtype:      dtype,
		Compressor: &compressorMeta{ID: "zstd", Level: level},
		FillValue:  0,
		Order:      "C",
	}
}

func (m arrayMeta) validate(dtype string) error {
	if m.Dtype != dtype {
		return fmt.Errorf("%w: dtype %q, want %q", ErrFormat, m.Dtype, dtype)
	}
	if m.Order != "" && m.Order != "C" {
		return fmt.Errorf("%w: unsupported order %q", ErrFormat, m.Order)
	}
	if len(m.Shape) == 0 {
		return fmt.Errorf("%w: array has no shape", ErrFormat)
	}
	for _, d := range m.Shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in shape %v", ErrFormat, m.Shape)
		}
	}
	if len(m.Chunks) != 0 && !equalInts(m.Chunks, m.Shape) {
		return fmt.Errorf("%w: chunked arrays are not supported (chunks %v, shape %v)", ErrFormat, m.Chunks, m.Shape)
	}
	if m.Compressor != nil && m.Compressor.ID != "zstd" {
		return fmt.Errorf("%w: unsupported compressor %q", ErrFormat, m.Compressor.ID)
	}
	return nil
}

func (m arrayMeta) size() int {
	n := 1
	for _, d := range m.Shape {
		n *= d
	}
	return n
}

// chunkKey is the key of the single chunk of an array with ndim dimensions,
// "0.0...0".
func chunkKey(ndim int) string {
	if ndim == 0 {
		return "0"
	}
	var sb strings.Builder
	for i := 0; i < ndim; i++ {
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(strconv.Itoa(0))
	}
	return sb.String()
}

func putJSON(s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, data)
}

func getJSON(s Store, key string, v interface{}) error {
	data, err := s.Get(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrFormat, key, err)
	}
	return nil
}

// groupNames returns the direct child groups of prefix that carry
// attributes. Names ending in a number sort numerically, so "roi_2" comes
// before "roi_10"; others sort lexically after them.
func groupNames(s Store, prefix string) []string {
	var names []string
	for _, key := range s.Keys() {
		if !strings.HasPrefix(key, prefix+"/") {
			continue
		}
		rest := strings.TrimPrefix(key, prefix+"/")
		parts := strings.Split(rest, "/")
		if len(parts) == 2 && parts[1] == keyAttributes {
			names = append(names, parts[0])
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		ni, iok := groupNumber(names[i])
		nj, jok := groupNumber(names[j])
		switch {
		case iok && jok && ni != nj:
			return ni < nj
		case iok != jok:
			return iok
		}
		return names[i] < names[j]
	})
	return names
}

func groupNumber(name string) (int, bool) {
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[i+1:])
	return n, err == nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

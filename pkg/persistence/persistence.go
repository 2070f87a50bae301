// Package persistence reads and writes ROI collections as single file
// containers.
//
// A container is a zip archive laid out like a zarr v2 store. The root
// ".zattrs" carries the format version, a description and the creation
// time. Version 1 stores one dense boolean mask per ROI under
// "rois/roi_<i>/mask". Files without a version, or with version 0, are the
// legacy polygon format and are migrated on load.
package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"arrview/pkg/ndarray"
	"arrview/pkg/roi"
)

// Version is the format version written by Save.
const Version = 1

const (
	// DefaultDescription is written into the root attributes
	DefaultDescription = "A collection of ROIs"
	// DefaultCompressionLevel is the zstd level used for chunks
	DefaultCompressionLevel = 2
)

const groupPrefix = "rois"

// ErrFormat reports a malformed or unsupported container.
var ErrFormat = errors.New("invalid ROI file")

// Codec saves and loads ROI containers.
type Codec struct {
	Description      string
	CompressionLevel int
	Logger           *slog.Logger

	// Now returns the creation time written by Save
	Now func() time.Time
}

// DefaultCodec returns a codec with the default description and level.
func DefaultCodec() *Codec {
	return &Codec{
		Description:      DefaultDescription,
		CompressionLevel: DefaultCompressionLevel,
		Logger:           slog.Default(),
		Now:              time.Now,
	}
}

// Save writes rois to filename using the default codec.
func Save(rois []*roi.ROI, filename string) error {
	return DefaultCodec().Save(rois, filename)
}

// Load reads filename using the default codec. See Codec.Load.
func Load(filename string, shape ndarray.Shape) ([]*roi.ROI, error) {
	return DefaultCodec().Load(filename, shape)
}

func (c *Codec) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Codec) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Codec) level() int {
	if c.CompressionLevel < 1 || c.CompressionLevel > 4 {
		return DefaultCompressionLevel
	}
	return c.CompressionLevel
}

// Save writes rois to filename as a version 1 container, overwriting any
// existing file. Each ROI is stored with its position in rois and its name.
func (c *Codec) Save(rois []*roi.ROI, filename string) error {
	s := NewMemoryStore()
	version := Version
	root := rootAttributes{
		Version:      &version,
		Description:  c.Description,
		CreationTime: unixSeconds(c.now()),
	}
	if err := putJSON(s, keyAttributes, root); err != nil {
		return err
	}

	for i, r := range rois {
		prefix := fmt.Sprintf("%s/roi_%d", groupPrefix, i)
		index := i
		if err := putJSON(s, prefix+"/"+keyAttributes, maskAttributes{Index: &index, Name: r.Name}); err != nil {
			return err
		}
		mask := r.Mask()
		meta := newArrayMeta(mask.Shape(), dtypeBool, c.level())
		if err := putArray(s, prefix+"/mask", meta, encodeBools(mask.Data())); err != nil {
			return fmt.Errorf("encode roi %q: %w", r.Name, err)
		}
	}

	if err := writeArchive(filename, s); err != nil {
		return fmt.Errorf("write roi file %s: %w", filename, err)
	}
	c.logger().Debug("saved rois", "path", filename, "count", len(rois), "version", Version)
	return nil
}

// Load reads the ROIs stored in filename. The root version attribute
// selects the decoder:
//
//   - 1: dense masks, returned in stored index order; shape is ignored.
//   - missing or 0: legacy polygons, rasterized against shape, which must
//     then be non-nil.
//   - anything else: an error wrapping ErrFormat.
//
// Returned ROIs have no color; the manager assigns one when they are added.
func (c *Codec) Load(filename string, shape ndarray.Shape) ([]*roi.ROI, error) {
	s, err := readArchive(filename)
	if err != nil {
		return nil, fmt.Errorf("load roi file %s: %w", filename, err)
	}
	root, err := readRoot(s)
	if err != nil {
		return nil, fmt.Errorf("load roi file %s: %w", filename, err)
	}

	var rois []*roi.ROI
	version := root.version()
	switch {
	case version == Version:
		rois, err = loadVersion1(s)
	case version == 0:
		if shape == nil {
			return nil, fmt.Errorf("load roi file %s: %w: legacy file requires an array shape", filename, ErrFormat)
		}
		rois, err = loadVersion0(s, shape)
	default:
		return nil, fmt.Errorf("load roi file %s: %w: unsupported version %d", filename, ErrFormat, version)
	}
	if err != nil {
		return nil, fmt.Errorf("load roi file %s: %w", filename, err)
	}

	c.logger().Debug("loaded rois", "path", filename, "count", len(rois), "version", version)
	return rois, nil
}

func readRoot(s Store) (rootAttributes, error) {
	var root rootAttributes
	if _, err := s.Get(keyAttributes); err != nil {
		// legacy writers did not always store root attributes
		return root, nil
	}
	if err := getJSON(s, keyAttributes, &root); err != nil {
		return root, err
	}
	return root, nil
}

func (a rootAttributes) version() int {
	if a.Version == nil {
		return 0
	}
	return *a.Version
}

func loadVersion1(s Store) ([]*roi.ROI, error) {
	type indexed struct {
		index int
		roi   *roi.ROI
	}
	var found []indexed
	seen := map[int]string{}
	for _, group := range groupNames(s, groupPrefix) {
		prefix := groupPrefix + "/" + group
		var attrs maskAttributes
		if err := getJSON(s, prefix+"/"+keyAttributes, &attrs); err != nil {
			return nil, err
		}
		if attrs.Index == nil {
			return nil, fmt.Errorf("%w: group %s has no index", ErrFormat, group)
		}
		if other, dup := seen[*attrs.Index]; dup {
			return nil, fmt.Errorf("%w: groups %s and %s share index %d", ErrFormat, other, group, *attrs.Index)
		}
		seen[*attrs.Index] = group

		meta, raw, err := getArray(s, prefix+"/mask", dtypeBool)
		if err != nil {
			return nil, err
		}
		data, err := decodeBools(raw, meta.size())
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", group, err)
		}
		mask, err := ndarray.MaskFromBools(ndarray.Shape(meta.Shape), data)
		if err != nil {
			return nil, fmt.Errorf("%w: group %s: %v", ErrFormat, group, err)
		}
		found = append(found, indexed{index: *attrs.Index, roi: roi.FromMask(attrs.Name, mask)})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].index < found[j].index })
	rois := make([]*roi.ROI, len(found))
	for i, f := range found {
		rois[i] = f.roi
	}
	return rois, nil
}

// Info summarizes a container without rasterizing it.
type Info struct {
	Version      int
	Description  string
	CreationTime time.Time
	// Entries holds one item per stored group, in storage order
	Entries []Entry
}

// Entry describes one stored group. Count is the number of set voxels for
// version 1 masks and the number of polygon vertices for legacy records.
type Entry struct {
	Name  string
	Count int
}

// ReadInfo reads the root attributes and a summary of every stored group.
func ReadInfo(filename string) (*Info, error) {
	s, err := readArchive(filename)
	if err != nil {
		return nil, fmt.Errorf("read roi file %s: %w", filename, err)
	}
	root, err := readRoot(s)
	if err != nil {
		return nil, fmt.Errorf("read roi file %s: %w", filename, err)
	}
	info := &Info{
		Version:      root.version(),
		Description:  root.Description,
		CreationTime: fromUnixSeconds(root.CreationTime),
	}

	switch info.Version {
	case Version:
		rois, err := loadVersion1(s)
		if err != nil {
			return nil, fmt.Errorf("read roi file %s: %w", filename, err)
		}
		for _, r := range rois {
			info.Entries = append(info.Entries, Entry{Name: r.Name, Count: r.Count()})
		}
	case 0:
		records, err := readRecords(s)
		if err != nil {
			return nil, fmt.Errorf("read roi file %s: %w", filename, err)
		}
		for _, rec := range records {
			info.Entries = append(info.Entries, Entry{Name: rec.Name, Count: len(rec.Poly)})
		}
	default:
		return nil, fmt.Errorf("read roi file %s: %w: unsupported version %d", filename, ErrFormat, info.Version)
	}
	return info, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(sec float64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	whole := int64(sec)
	return time.Unix(whole, int64((sec-float64(whole))*1e9))
}

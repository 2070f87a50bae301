package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"arrview/pkg/persistence"
)

// InfoResult is the JSON form of the info command output.
type InfoResult struct {
	Path         string      `json:"path"`
	Version      int         `json:"version"`
	Description  string      `json:"description"`
	CreationTime *time.Time  `json:"creation_time,omitempty"`
	ROIs         []InfoEntry `json:"rois"`
}

// InfoEntry describes one stored group. Voxels is set for version 1 masks,
// Vertices for legacy polygons.
type InfoEntry struct {
	Name     string `json:"name"`
	Voxels   *int   `json:"voxels,omitempty"`
	Vertices *int   `json:"vertices,omitempty"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Describe an ROI file",
		Long: `Print the format version, description and creation time of an ROI file,
followed by every stored ROI. Version 1 files report the number of set
voxels per ROI; legacy files report the number of polygon vertices per
record.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInfo(opts *RootOptions, path string, cmd *cobra.Command) error {
	info, err := persistence.ReadInfo(path)
	if err != nil {
		return fileError(path, err)
	}

	result := InfoResult{Path: path, Version: info.Version, Description: info.Description}
	if !info.CreationTime.IsZero() {
		created := info.CreationTime.UTC()
		result.CreationTime = &created
	}
	result.ROIs = make([]InfoEntry, len(info.Entries))
	for i, e := range info.Entries {
		count := e.Count
		result.ROIs[i] = InfoEntry{Name: e.Name}
		if info.Version == persistence.Version {
			result.ROIs[i].Voxels = &count
		} else {
			result.ROIs[i].Vertices = &count
		}
	}

	return opts.formatter(cmd).Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "file:        %s\n", result.Path)
		fmt.Fprintf(w, "version:     %d\n", result.Version)
		fmt.Fprintf(w, "description: %s\n", result.Description)
		if result.CreationTime != nil {
			fmt.Fprintf(w, "created:     %s\n", result.CreationTime.Format(time.RFC3339))
		}
		fmt.Fprintf(w, "rois:        %d\n", len(result.ROIs))
		for _, e := range result.ROIs {
			switch {
			case e.Voxels != nil:
				fmt.Fprintf(w, "  %-16s %d voxels\n", e.Name, *e.Voxels)
			case e.Vertices != nil:
				fmt.Fprintf(w, "  %-16s %d vertices\n", e.Name, *e.Vertices)
			}
		}
	})
}

// fileError maps persistence errors to exit codes: a missing file is a
// command error, anything else a failure.
func fileError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return WrapExitError(ExitCommandError, fmt.Sprintf("file not found: %s", path), err)
	case errors.Is(err, persistence.ErrFormat):
		return WrapExitError(ExitFailure, fmt.Sprintf("invalid ROI file: %s", path), err)
	default:
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to read %s", path), err)
	}
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"arrview/pkg/ndarray"
	"arrview/pkg/roi"
)

// MigrateResult is the JSON form of the migrate command output.
type MigrateResult struct {
	Input  string        `json:"input"`
	Output string        `json:"output"`
	Shape  []int         `json:"shape"`
	ROIs   []MigratedROI `json:"rois"`
}

// MigratedROI describes one ROI written by migrate.
type MigratedROI struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Voxels int    `json:"voxels"`
}

type migrateOptions struct {
	shape string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate <input> <output>",
		Short: "Rewrite an ROI file as version 1",
		Long: `Load an ROI file against the shape of the array it was drawn on and write
it back in the current format. Legacy polygon files are rasterized into
dense masks; records sharing a name become one ROI.`,
		Example:       `  arrview migrate old.roi new.roi --shape 128,128,5,5`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.shape, "shape", "", "shape of the array the ROIs belong to, e.g. 128,128,5")
	_ = cmd.MarkFlagRequired("shape")

	return cmd
}

func runMigrate(rootOpts *RootOptions, opts *migrateOptions, input, output string, cmd *cobra.Command) error {
	shape, err := ndarray.ParseShape(opts.shape)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --shape", err)
	}
	if shape.NDim() < 2 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--shape needs at least 2 dimensions, got %v", shape))
	}

	codec := rootOpts.codec()
	rois, err := codec.Load(input, shape)
	if err != nil {
		return fileError(input, err)
	}

	// the manager assigns display colors and counts voxels
	arr, err := ndarray.NewArray(shape, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --shape", err)
	}
	var managerOpts []roi.ManagerOption
	if cfg := rootOpts.Config; cfg != nil {
		managerOpts = append(managerOpts, roi.WithColors(cfg.Colors.HueStart, cfg.Colors.Saturation, cfg.Colors.Lightness))
	}
	if rootOpts.Logger != nil {
		managerOpts = append(managerOpts, roi.WithLogger(rootOpts.Logger))
	}
	manager, err := roi.NewManager(arr, managerOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid color configuration", err)
	}
	if err := manager.AddROIs(rois); err != nil {
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("ROIs in %s do not match shape %v", input, shape), err)
	}

	if err := codec.Save(manager.ROIs(), output); err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to write %s", output), err)
	}

	result := MigrateResult{Input: input, Output: output, Shape: shape, ROIs: []MigratedROI{}}
	for _, view := range manager.StatsViews() {
		r := view.ROI()
		result.ROIs = append(result.ROIs, MigratedROI{
			Index:  view.Index,
			Name:   r.Name,
			Color:  r.Color.String(),
			Voxels: view.Size(),
		})
	}

	return rootOpts.formatter(cmd).Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "migrated %d ROI(s) from %s to %s\n", len(result.ROIs), input, output)
		for _, r := range result.ROIs {
			fmt.Fprintf(w, "  %2d %-16s %s %d voxels\n", r.Index, r.Name, r.Color, r.Voxels)
		}
	})
}

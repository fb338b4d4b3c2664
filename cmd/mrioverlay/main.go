package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"mrioverlay/cmd/mrioverlay/commands"
	"mrioverlay/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mrioverlay",
	Short: "Resample an overlay volume onto the grid of a base MRI volume",
	Long: `mrioverlay maps a moving (overlay) NIfTI volume onto the voxel grid of a base
volume so the two can be displayed or analysed voxel by voxel.

When both files carry a usable voxel-to-world transform (sform, qform or a
precomputed matrix) the overlay is aligned in physical space. Otherwise it is
stretched over the base grid by array index alone.

Examples:
  mrioverlay resample --base t1.nii.gz --moving pet.nii --out pet_in_t1.nii.gz
  mrioverlay affine t1.nii.gz
  mrioverlay config init mrioverlay.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(commands.ResampleCmd)
	rootCmd.AddCommand(commands.AffineCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		pterm.Error.Println(err)
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
		os.Exit(1)
	}
}

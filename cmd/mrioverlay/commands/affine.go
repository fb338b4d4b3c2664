package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mrioverlay/pkg/affine"
	"mrioverlay/pkg/nifti"
)

// AffineCmd prints the voxel-to-world transform a file would be aligned with
var AffineCmd = &cobra.Command{
	Use:   "affine FILE",
	Short: "Show the voxel-to-world affine decoded from a NIfTI header",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := nifti.Load(args[0])
		if err != nil {
			return err
		}
		describeAffine(cmd.OutOrStdout(), args[0], img)
		return nil
	},
}

func describeAffine(w io.Writer, name string, img *nifti.Image) {
	hdr := img.ModelHeader()
	fmt.Fprintf(w, "%s: %s\n", name, img.Volume)
	fmt.Fprintf(w, "source: %s\n", affine.Describe(hdr))

	a, err := affine.Decode(hdr)
	if err != nil {
		fmt.Fprintf(w, "affine: unavailable (%v)\n", err)
		return
	}
	fmt.Fprintf(w, "affine:\n%s\n", a)
	if _, err := a.Inverse(); err != nil {
		fmt.Fprintln(w, "warning: affine is singular and cannot be used as a moving transform")
	}
}

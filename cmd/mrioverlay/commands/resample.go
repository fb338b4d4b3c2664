package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pbnjay/memory"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"mrioverlay/internal/logger"
	"mrioverlay/internal/models"
	"mrioverlay/pkg/affine"
	"mrioverlay/pkg/config"
	"mrioverlay/pkg/interpolation"
	"mrioverlay/pkg/nifti"
	"mrioverlay/pkg/resample"
	"mrioverlay/pkg/visualization"
)

const defaultConfigPath = "mrioverlay.yaml"

// resampleOptions holds the resample command line
type resampleOptions struct {
	basePath   string
	movingPath string
	outPath    string
	configPath string
	method     string
	cores      int
	previewDir string
	quiet      bool
}

var resampleOpts resampleOptions

// ResampleCmd resamples the moving volume onto the base grid
var ResampleCmd = &cobra.Command{
	Use:   "resample",
	Short: "Resample a moving volume onto the grid of a base volume",
	Long: `Resample the moving volume onto the voxel grid of the base volume and write the
result with the base volume's geometry. Voxels with no data in the moving
volume are stored as NaN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(resampleOpts.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg, &resampleOpts)
		if err := cfg.Validate(); err != nil {
			return errors.Wrapf(err, "invalid configuration")
		}
		if err := logger.Initialize(cfg.Output.JSONLogs, cfg.Output.Verbose); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return runResample(cmd.OutOrStdout(), cfg, resampleOpts)
	},
}

func init() {
	f := ResampleCmd.Flags()
	f.StringVar(&resampleOpts.basePath, "base", "", "Base volume defining the output grid (.nii or .nii.gz)")
	f.StringVar(&resampleOpts.movingPath, "moving", "", "Moving volume to resample (.nii or .nii.gz)")
	f.StringVarP(&resampleOpts.outPath, "out", "o", "", "Output file (.nii or .nii.gz)")
	f.StringVarP(&resampleOpts.configPath, "config", "c", defaultConfigPath, "YAML configuration file")
	f.StringVarP(&resampleOpts.method, "method", "m", "", "Interpolation method: nearest, linear, cubic or spline")
	f.IntVar(&resampleOpts.cores, "cores", 0, "Number of CPU cores to use (default from config: all available)")
	f.StringVar(&resampleOpts.previewDir, "previews", "", "Write overlay preview images to this directory")
	f.BoolVarP(&resampleOpts.quiet, "quiet", "q", false, "Do not show a progress bar")

	_ = ResampleCmd.MarkFlagRequired("base")
	_ = ResampleCmd.MarkFlagRequired("moving")
	_ = ResampleCmd.MarkFlagRequired("out")
}

// applyFlags lets explicitly set flags override the configuration file
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *resampleOptions) {
	if cmd.Flags().Changed("method") {
		cfg.Resample.Method = opts.method
	}
	if cmd.Flags().Changed("cores") {
		cfg.Resample.NumCores = opts.cores
	}
	if cmd.Flags().Changed("previews") {
		cfg.Output.SavePreviews = opts.previewDir != ""
		cfg.Output.PreviewDir = opts.previewDir
	}
}

func runResample(out io.Writer, cfg *config.Config, opts resampleOptions) error {
	method, err := interpolation.ParseMethod(cfg.Resample.Method)
	if err != nil {
		return err
	}

	base, err := nifti.Load(opts.basePath)
	if err != nil {
		return errors.Wrap(err, "base")
	}
	moving, err := nifti.Load(opts.movingPath)
	if err != nil {
		return errors.Wrap(err, "moving")
	}
	baseHdr, movingHdr := base.ModelHeader(), moving.ModelHeader()

	plan := resample.PlanFor(baseHdr, movingHdr)
	fmt.Fprintf(out, "Base:   %s, %s\n", base.Volume, describeSource(plan.BaseAffine != nil, baseHdr))
	fmt.Fprintf(out, "Moving: %s, %s\n", moving.Volume, describeSource(plan.MovingAffine != nil, movingHdr))
	fmt.Fprintf(out, "Path:   %s resampling with %s interpolation\n", plan.Path, method)
	warnMemory(out, base.Volume, moving.Volume)

	params := resample.DefaultParams()
	params.Method = method
	params.NumCores = cfg.Resample.NumCores

	var bar *pterm.ProgressbarPrinter
	if !opts.quiet && base.Volume.Is3D() {
		bar, err = pterm.DefaultProgressbar.
			WithTotal(base.Volume.Depth()).
			WithTitle("Resampling").
			WithWriter(out).
			Start()
		if err != nil {
			return errors.Wrap(err, "starting progress bar")
		}
		params.Progress = func(completed, total int, message string) {
			if message == "" {
				bar.Increment()
			}
		}
	}

	startTime := time.Now()
	result, err := resample.NewResampler(params).OverlayToBase(base.Volume, baseHdr, moving.Volume, movingHdr)
	if bar != nil {
		_, _ = bar.Stop()
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	img, err := nifti.NewImage(&base.Header, result)
	if err != nil {
		return err
	}
	if err := nifti.Save(opts.outPath, img); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResampled in %.2f seconds on %d cores\n", elapsed.Seconds(), params.NumCores)
	fmt.Fprintf(out, "Output saved to: %s\n\n", opts.outPath)

	if err := printSummary(out, base.Volume, result); err != nil {
		return err
	}

	if cfg.Output.SavePreviews {
		n, err := visualization.SaveOverlaySequence(base.Volume, result,
			cfg.Output.PreviewAxis, cfg.Output.PreviewDir, cfg.Output.OverlayHue, cfg.Output.OverlayAlpha)
		if err != nil {
			return errors.Wrap(err, "saving previews")
		}
		fmt.Fprintf(out, "\n%d %s-axis previews saved to: %s\n", n, cfg.Output.PreviewAxis, cfg.Output.PreviewDir)
	}
	return nil
}

func describeSource(ok bool, hdr *models.Header) string {
	if !ok {
		return fmt.Sprintf("no usable affine (header source: %s)", affine.Describe(hdr))
	}
	return "affine from " + affine.Describe(hdr)
}

func printSummary(out io.Writer, base, result *models.Volume) error {
	s := resample.Summarize(result)
	data := pterm.TableData{
		{"Metric", "Value"},
		{"Voxels", fmt.Sprintf("%d", s.Voxels)},
		{"Valid", fmt.Sprintf("%d (%.1f%%)", s.Valid, 100*s.Coverage)},
		{"Missing (NaN)", fmt.Sprintf("%d", s.Missing)},
		{"Mean", fmt.Sprintf("%.4g", s.Mean)},
		{"Std dev", fmt.Sprintf("%.4g", s.StdDev)},
		{"Range", fmt.Sprintf("[%.4g, %.4g]", s.Min, s.Max)},
	}
	if ag, err := resample.Compare(base, result); err == nil {
		data = append(data,
			[]string{"Overlap with base", fmt.Sprintf("%d", ag.Overlap)},
			[]string{"Correlation with base", fmt.Sprintf("%.3f", ag.Correlation)})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()
}

// warnMemory flags runs whose input and output volumes would take more than
// half of physical memory
func warnMemory(out io.Writer, base, moving *models.Volume) {
	total := memory.TotalMemory()
	if total == 0 {
		return
	}
	// output grid plus the moving data and a spline coefficient copy
	need := uint64(len(base.Data)+2*len(moving.Data)) * 8
	if need > total/2 {
		fmt.Fprintf(out, "Warning: resampling needs about %d MB, physical memory is %d MB\n",
			need/1024/1024, total/1024/1024)
	}
}

package resample

import (
	"fmt"
	"math"
	"sync"
	"time"
)

var nan = math.NaN()

// sampleFunc returns the output value for voxel (x, y, z) of the target grid
type sampleFunc func(x, y, z int) float64

// evaluateGrid fills a width*height*depth grid by calling fn for every voxel
// and applying the epsilon cleanup. The z-range is divided among the
// configured cores; each goroutine writes a disjoint slab of the result.
func (r *Resampler) evaluateGrid(width, height, depth int, fn sampleFunc) []float64 {
	result := make([]float64, width*height*depth)
	if len(result) == 0 {
		return result
	}

	numCores := r.params.NumCores
	if numCores > depth {
		numCores = depth
	}
	slicesPerCore := (depth + numCores - 1) / numCores

	var (
		wg              sync.WaitGroup
		progressMutex   sync.Mutex
		completedSlices int
	)
	startTime := time.Now()
	r.reportProgress(0, depth, fmt.Sprintf("Evaluating %dx%dx%d grid on %d cores", width, height, depth, numCores))

	for c := 0; c < numCores; c++ {
		startSlice := c * slicesPerCore
		endSlice := startSlice + slicesPerCore
		if endSlice > depth {
			endSlice = depth
		}
		if startSlice >= endSlice {
			continue
		}

		wg.Add(1)
		go func(startSlice, endSlice int) {
			defer wg.Done()
			for z := startSlice; z < endSlice; z++ {
				off := z * width * height
				for y := 0; y < height; y++ {
					row := off + y*width
					for x := 0; x < width; x++ {
						result[row+x] = cleanup(fn(x, y, z))
					}
				}

				progressMutex.Lock()
				completedSlices++
				r.reportProgress(completedSlices, depth, "")
				progressMutex.Unlock()
			}
		}(startSlice, endSlice)
	}
	wg.Wait()

	r.log.Debugw("grid evaluated",
		"dims", fmt.Sprintf("%dx%dx%d", width, height, depth),
		"cores", numCores,
		"elapsed", time.Since(startTime))
	return result
}

// reportProgress forwards to the configured callback, if any
func (r *Resampler) reportProgress(completed, total int, message string) {
	if r.params.Progress != nil {
		r.params.Progress(completed, total, message)
	}
}

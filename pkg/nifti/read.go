package nifti

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/cockroachdb/errors"
	niftilib "github.com/henghuang/nifti"
	"github.com/klauspost/compress/gzip"

	"mrioverlay/internal/models"
)

// ErrInvalidFile marks inputs that are not readable NIfTI-1 images
var ErrInvalidFile = errors.New("not a valid NIfTI-1 file")

// MaxDataBytes bounds the voxel payload accepted from a single file
const MaxDataBytes = 8 << 30

// Image is a decoded NIfTI-1 file: the raw header and the scaled voxel data.
type Image struct {
	Header Header
	Volume *models.Volume

	// ByteOrder is the order the file was stored in
	ByteOrder binary.ByteOrder
}

// ModelHeader returns the spatial metadata of the image
func (img *Image) ModelHeader() *models.Header {
	return img.Header.ModelHeader()
}

// Load reads a .nii or .nii.gz file. Compression is detected from the
// content, not the file name. Compressed files are inflated into a
// temporary .nii first, bounded by MaxDataBytes.
func Load(path string) (*Image, error) {
	plain, size, cleanup, err := uncompressed(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	defer cleanup()

	img, err := load(plain, size)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return img, nil
}

func load(path string, size int64) (*Image, error) {
	if size < HeaderSize {
		return nil, errors.Mark(errors.Newf("file has %d bytes, shorter than the header", size), ErrInvalidFile)
	}

	lh, err := safelyLoadHeader(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing header"), ErrInvalidFile)
	}
	h, order, err := fromLibraryHeader(&lh)
	if err != nil {
		return nil, err
	}
	dims, err := checkHeader(&h, size)
	if err != nil {
		return nil, err
	}

	li, err := safelyLoadImage(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "reading voxel data"), ErrInvalidFile)
	}

	vol := models.NewVolume(dims...)
	nx, ny, nz, nt := axis(dims, 0), axis(dims, 1), axis(dims, 2), axis(dims, 3)
	i := 0
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					vol.Data[i] = float64(li.GetAt(uint32(x), uint32(y), uint32(z), uint32(t)))
					i++
				}
			}
		}
	}
	vol.VoxelSize.X = float64(h.Pixdim[1])
	vol.VoxelSize.Y = float64(h.Pixdim[2])
	vol.VoxelSize.Z = float64(h.Pixdim[3])

	return &Image{Header: h, Volume: vol, ByteOrder: order}, nil
}

// safelyLoadHeader turns panics raised by the nifti library on malformed
// headers into errors.
func safelyLoadHeader(path string) (h niftilib.Nifti1Header, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = errors.Newf("%v", panicErr)
		}
	}()

	h.LoadHeader(path)

	return
}

// safelyLoadImage is safelyLoadHeader for the voxel data.
func safelyLoadImage(path string) (img *niftilib.Nifti1Image, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			img, err = nil, errors.Newf("%v", panicErr)
		}
	}()

	img = &niftilib.Nifti1Image{}
	img.LoadImage(path, true)

	return
}

// fromLibraryHeader converts the library header into Header. Both mirror the
// 348-byte on-disk layout, so the conversion goes through that encoding. The
// little-endian bytes are the file bytes when the library did not swap them,
// which is how big-endian files are recognised.
func fromLibraryHeader(lh *niftilib.Nifti1Header) (Header, binary.ByteOrder, error) {
	var h Header
	if n := binary.Size(lh); n != HeaderSize {
		return h, nil, errors.AssertionFailedf("nifti library header is %d bytes, expected %d", n, HeaderSize)
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, lh); err != nil {
		return h, nil, errors.Wrap(err, "encoding library header")
	}
	raw := buf.Bytes()

	order, ok := detectByteOrder(raw)
	if !ok {
		return h, nil, errors.WithHint(
			errors.Mark(errors.Newf("sizeof_hdr is not %d", HeaderSize), ErrInvalidFile),
			"NIfTI-2 and Analyze files are not supported")
	}
	if err := binary.Read(bytes.NewReader(raw), order, &h); err != nil {
		return h, nil, errors.Mark(errors.Wrap(err, "decoding header"), ErrInvalidFile)
	}
	return h, order, nil
}

// checkHeader validates the fields the voxel reader relies on and returns the
// squeezed shape. The payload must fit in a file of the given size, so a
// corrupt dim field cannot trigger a huge allocation.
func checkHeader(h *Header, size int64) ([]int, error) {
	if h.Magic != magicSingleFile {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("unexpected magic %q", h.Magic[:3]), ErrInvalidFile),
			"only single-file images (magic n+1) can be read; convert .hdr/.img pairs first")
	}

	dims := squeeze(h.Dims())
	if len(dims) == 0 {
		return nil, errors.Mark(errors.Newf("invalid dim[0] = %d", h.Dim[0]), ErrInvalidFile)
	}
	if len(dims) > 4 {
		return nil, errors.Mark(errors.Newf("%d non-singleton dimensions, at most 4 are supported", len(dims)), ErrInvalidFile)
	}

	bpv := bytesPerVoxel(h.Datatype)
	if bpv == 0 {
		return nil, errors.WithHintf(
			errors.Mark(errors.Newf("unsupported datatype %d", h.Datatype), ErrInvalidFile),
			"supported datatypes: %v", []int16{DTUint8, DTInt16, DTInt32, DTFloat32, DTFloat64})
	}

	n := int64(bpv)
	for i, d := range dims {
		if d <= 0 {
			return nil, errors.Mark(errors.Newf("dim[%d] = %d", i+1, d), ErrInvalidFile)
		}
		if n > MaxDataBytes/int64(d) {
			return nil, errors.Mark(errors.Newf("shape %s exceeds %d bytes of voxel data", models.FormatDims(dims), int64(MaxDataBytes)), ErrInvalidFile)
		}
		n *= int64(d)
	}

	if math.IsNaN(float64(h.VoxOffset)) || h.VoxOffset < HeaderSize {
		return nil, errors.Mark(errors.Newf("vox_offset %g lies inside the header", h.VoxOffset), ErrInvalidFile)
	}
	if avail := size - int64(h.VoxOffset); n > avail {
		return nil, errors.Mark(errors.Newf("shape %s needs %d bytes of voxel data, file holds %d", models.FormatDims(dims), n, max(avail, 0)), ErrInvalidFile)
	}
	return dims, nil
}

// uncompressed returns a path to the plain image and its size. A gzip file is
// inflated into a temporary file that cleanup removes.
func uncompressed(path string) (string, int64, func(), error) {
	noop := func() {}
	f, err := os.Open(path)
	if err != nil {
		return "", 0, noop, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, noop, errors.Wrap(err, "stat")
	}
	br := bufio.NewReader(f)
	head, _ := br.Peek(2)
	if len(head) < 2 || head[0] != 0x1f || head[1] != 0x8b {
		return path, info.Size(), noop, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return "", 0, noop, errors.Mark(errors.Wrap(err, "opening gzip stream"), ErrInvalidFile)
	}
	defer zr.Close()

	tmp, err := os.CreateTemp("", "mrioverlay-*.nii")
	if err != nil {
		return "", 0, noop, errors.Wrap(err, "creating temporary file")
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	limit := int64(MaxDataBytes) + 1<<20
	n, err := io.Copy(tmp, io.LimitReader(zr, limit+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", 0, noop, errors.Mark(errors.Wrap(err, "decompressing"), ErrInvalidFile)
	}
	if n > limit {
		cleanup()
		return "", 0, noop, errors.Mark(errors.Newf("decompressed data exceeds %d bytes", limit), ErrInvalidFile)
	}
	return tmp.Name(), n, cleanup, nil
}

// squeeze drops trailing singleton axes beyond the third
func squeeze(dims []int) []int {
	for len(dims) > 3 && dims[len(dims)-1] == 1 {
		dims = dims[:len(dims)-1]
	}
	return dims
}

func axis(dims []int, i int) int {
	if i < len(dims) {
		return dims[i]
	}
	return 1
}

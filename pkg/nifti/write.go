package nifti

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"

	"mrioverlay/internal/models"
)

// NewImage pairs a volume with a header derived from template. The spatial
// fields (pixdim, qform, sform, units) are kept; the fields describing
// storage are rewritten for float32 data of the volume's shape. A nil
// template yields unit spacing and no orientation.
func NewImage(template *Header, vol *models.Volume) (*Image, error) {
	if vol == nil {
		return nil, errors.New("nil volume")
	}
	dims := vol.Dims
	if len(dims) == 0 || len(dims) > 7 {
		return nil, errors.Newf("cannot store a volume with %d dimensions", len(dims))
	}

	var h Header
	if template != nil {
		h = *template
	} else {
		h.Pixdim = [8]float32{1, 1, 1, 1, 1, 1, 1, 1}
		h.XYZTUnits = 2 // mm
	}

	h.SizeofHdr = HeaderSize
	h.Magic = magicSingleFile
	h.Dim = [8]int16{}
	h.Dim[0] = int16(len(dims))
	for i, d := range dims {
		if d <= 0 || d > math.MaxInt16 {
			return nil, errors.Newf("dimension %d out of range: %d", i+1, d)
		}
		h.Dim[i+1] = int16(d)
	}
	for i := len(dims) + 1; i < 8; i++ {
		h.Dim[i] = 1
	}
	h.Datatype = DTFloat32
	h.Bitpix = 32
	h.VoxOffset = dataOffset
	h.SclSlope = 1
	h.SclInter = 0
	h.CalMin, h.CalMax = 0, 0
	h.GLMin, h.GLMax = 0, 0

	return &Image{Header: h, Volume: vol, ByteOrder: binary.LittleEndian}, nil
}

// Save writes the image as float32 little-endian. A path ending in .gz is
// gzip-compressed.
func Save(path string, img *Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}

	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}

	err = Encode(w, img)
	if zw != nil {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// Encode writes an uncompressed image. The header is rewritten for float32
// storage the same way NewImage does.
func Encode(w io.Writer, img *Image) error {
	if img == nil || img.Volume == nil {
		return errors.New("nothing to encode")
	}
	out, err := NewImage(&img.Header, img.Volume)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &out.Header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	// no extensions
	if _, err := bw.Write([]byte{0, 0, 0, 0}); err != nil {
		return errors.Wrap(err, "writing extension flag")
	}

	var buf [4]byte
	for _, v := range out.Volume.Data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
		if _, err := bw.Write(buf[:]); err != nil {
			return errors.Wrap(err, "writing voxel data")
		}
	}
	return bw.Flush()
}

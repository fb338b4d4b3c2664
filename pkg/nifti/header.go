// Package nifti reads and writes single-file NIfTI-1 images (.nii and
// .nii.gz) and exposes their spatial metadata as a models.Header.
package nifti

import (
	"bytes"
	"encoding/binary"

	"mrioverlay/internal/models"
)

const (
	// HeaderSize is sizeof_hdr for NIfTI-1
	HeaderSize = 348

	// dataOffset is the header plus the 4-byte extension flag
	dataOffset = 352
)

// Datatype codes
const (
	DTUint8   int16 = 2
	DTInt16   int16 = 4
	DTInt32   int16 = 8
	DTFloat32 int16 = 16
	DTFloat64 int16 = 64
	DTInt8    int16 = 256
	DTUint16  int16 = 512
	DTUint32  int16 = 768
	DTInt64   int16 = 1024
	DTUint64  int16 = 1280
)

var magicSingleFile = [4]byte{'n', '+', '1', 0}

// Header is the on-disk NIfTI-1 header. Field order and sizes match the file
// layout exactly so it can be written with encoding/binary.
type Header struct {
	SizeofHdr    int32
	DataType     [10]byte
	DBName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte
	Dim          [8]int16
	IntentP1     float32
	IntentP2     float32
	IntentP3     float32
	IntentCode   int16
	Datatype     int16
	Bitpix       int16
	SliceStart   int16
	Pixdim       [8]float32
	VoxOffset    float32
	SclSlope     float32
	SclInter     float32
	SliceEnd     int16
	SliceCode    byte
	XYZTUnits    byte
	CalMax       float32
	CalMin       float32
	SliceDur     float32
	TOffset      float32
	GLMax        int32
	GLMin        int32
	Descrip      [80]byte
	AuxFile      [24]byte
	QformCode    int16
	SformCode    int16
	QuaternB     float32
	QuaternC     float32
	QuaternD     float32
	QOffsetX     float32
	QOffsetY     float32
	QOffsetZ     float32
	SrowX        [4]float32
	SrowY        [4]float32
	SrowZ        [4]float32
	IntentName   [16]byte
	Magic        [4]byte
}

// Dims returns the axis extents listed in dim[1..dim[0]]
func (h *Header) Dims() []int {
	n := int(h.Dim[0])
	if n < 0 || n > 7 {
		return nil
	}
	dims := make([]int, n)
	for i := 0; i < n; i++ {
		dims[i] = int(h.Dim[i+1])
	}
	return dims
}

// Description returns the descrip field as a string
func (h *Header) Description() string {
	return string(bytes.TrimRight(h.Descrip[:], "\x00"))
}

// ModelHeader maps the spatial fields into the form the affine decoder reads
func (h *Header) ModelHeader() *models.Header {
	mh := &models.Header{
		SformCode: int(h.SformCode),
		QformCode: int(h.QformCode),
		QuaternB:  float64(h.QuaternB),
		QuaternC:  float64(h.QuaternC),
		QuaternD:  float64(h.QuaternD),
		QOffset:   [3]float64{float64(h.QOffsetX), float64(h.QOffsetY), float64(h.QOffsetZ)},
	}
	for i := 0; i < 4; i++ {
		mh.SrowX[i] = float64(h.SrowX[i])
		mh.SrowY[i] = float64(h.SrowY[i])
		mh.SrowZ[i] = float64(h.SrowZ[i])
		mh.Pixdim[i] = float64(h.Pixdim[i])
	}
	return mh
}

// bytesPerVoxel returns the storage size of a datatype the voxel reader
// handles, or 0 if unsupported
func bytesPerVoxel(datatype int16) int {
	switch datatype {
	case DTUint8:
		return 1
	case DTInt16:
		return 2
	case DTInt32, DTFloat32:
		return 4
	case DTFloat64:
		return 8
	default:
		return 0
	}
}

// detectByteOrder inspects sizeof_hdr, which is always 348
func detectByteOrder(raw []byte) (binary.ByteOrder, bool) {
	switch {
	case binary.LittleEndian.Uint32(raw[:4]) == HeaderSize:
		return binary.LittleEndian, true
	case binary.BigEndian.Uint32(raw[:4]) == HeaderSize:
		return binary.BigEndian, true
	default:
		return nil, false
	}
}

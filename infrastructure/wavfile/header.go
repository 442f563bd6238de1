package wavfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Skryldev/stereomerge/domain/model"
	"github.com/Skryldev/stereomerge/domain/pcm"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
)

const (
	// HeaderSize is the length of the header written by Encode
	HeaderSize = 44

	riffHeaderSize  = 12
	chunkHeaderSize = 8
	pcmFmtSize      = 16
	extensibleSize  = 40

	formatPCM        = 0x0001
	formatExtensible = 0xFFFE
)

var (
	tagRIFF = []byte("RIFF")
	tagWAVE = []byte("WAVE")
	tagFmt  = []byte("fmt ")
	tagData = []byte("data")

	// KSDATAFORMAT_SUBTYPE_PCM without its leading format code
	pcmSubFormatTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}
)

type fmtChunk struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	byteRate      uint32
	blockAlign    uint16
	bitsPerSample uint16
}

// Decode parses a complete container held in data. The returned buffer
// aliases data.
func Decode(data []byte) (model.ContainerParams, model.PCMBuffer, error) {
	return decode("", data)
}

func decode(path string, data []byte) (model.ContainerParams, model.PCMBuffer, error) {
	var params model.ContainerParams

	invalid := func(format string, args ...any) error {
		return pkgerrors.NewInvalidFormatError(path, fmt.Sprintf(format, args...))
	}

	if len(data) < riffHeaderSize {
		return params, nil, invalid("file too short for RIFF header: %d bytes", len(data))
	}
	if !bytes.Equal(data[0:4], tagRIFF) || !bytes.Equal(data[8:12], tagWAVE) {
		return params, nil, invalid("not a RIFF/WAVE container")
	}
	riffSize := binary.LittleEndian.Uint32(data[4:8])
	if uint64(riffSize) != uint64(len(data))-8 {
		return params, nil, invalid("RIFF size %d does not match file length %d", riffSize, len(data))
	}

	var (
		format  *fmtChunk
		payload []byte
		hasData bool
	)

	off := riffHeaderSize
	for off < len(data) {
		if len(data)-off < chunkHeaderSize {
			return params, nil, invalid("truncated chunk header at offset %d", off)
		}
		id := data[off : off+4]
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + chunkHeaderSize
		if uint64(size) > uint64(len(data)-body) {
			return params, nil, invalid("chunk %q at offset %d declares %d bytes past end of file", id, off, size)
		}
		end := body + int(size)

		switch {
		case bytes.Equal(id, tagFmt):
			if format != nil {
				return params, nil, invalid("more than one fmt chunk")
			}
			f, err := parseFmt(data[body:end])
			if err != nil {
				return params, nil, invalid("%v", err)
			}
			format = f
		case bytes.Equal(id, tagData):
			if hasData {
				return params, nil, invalid("more than one data chunk")
			}
			payload = data[body:end]
			hasData = true
		}

		off = end
		// RIFF chunks are word aligned; a final odd chunk may omit its pad
		if size%2 == 1 && off < len(data) {
			off++
		}
	}

	if format == nil {
		return params, nil, invalid("missing fmt chunk")
	}
	if !hasData {
		return params, nil, invalid("missing data chunk")
	}

	if format.bitsPerSample%8 != 0 || !pcm.ValidByteWidth(int(format.bitsPerSample/8)) {
		return params, nil, invalid("unsupported bits per sample %d", format.bitsPerSample)
	}
	width := uint8(format.bitsPerSample / 8)
	if format.channels == 0 {
		return params, nil, invalid("channel count is zero")
	}
	if format.sampleRate == 0 {
		return params, nil, invalid("sample rate is zero")
	}

	params = model.ContainerParams{
		SampleRate:   format.sampleRate,
		ByteWidth:    width,
		ChannelCount: format.channels,
	}
	frameSize := params.BlockAlign()
	if int(format.blockAlign) != frameSize {
		return params, nil, invalid("block align %d does not match %d channels of %d bytes",
			format.blockAlign, format.channels, width)
	}
	if len(payload)%frameSize != 0 {
		return params, nil, invalid("payload of %d bytes is not a whole number of %d-byte frames",
			len(payload), frameSize)
	}
	params.FrameCount = uint32(len(payload) / frameSize)
	return params, model.PCMBuffer(payload), nil
}

func parseFmt(b []byte) (*fmtChunk, error) {
	if len(b) < pcmFmtSize {
		return nil, fmt.Errorf("fmt chunk too short: %d bytes", len(b))
	}
	f := &fmtChunk{
		audioFormat:   binary.LittleEndian.Uint16(b[0:2]),
		channels:      binary.LittleEndian.Uint16(b[2:4]),
		sampleRate:    binary.LittleEndian.Uint32(b[4:8]),
		byteRate:      binary.LittleEndian.Uint32(b[8:12]),
		blockAlign:    binary.LittleEndian.Uint16(b[12:14]),
		bitsPerSample: binary.LittleEndian.Uint16(b[14:16]),
	}

	switch f.audioFormat {
	case formatPCM:
	case formatExtensible:
		if len(b) < extensibleSize {
			return nil, fmt.Errorf("extensible fmt chunk too short: %d bytes", len(b))
		}
		sub := b[24:40]
		if binary.LittleEndian.Uint16(sub[0:2]) != formatPCM || !bytes.Equal(sub[2:], pcmSubFormatTail) {
			return nil, fmt.Errorf("extensible sub-format is not integer PCM")
		}
	default:
		return nil, fmt.Errorf("audio format %#04x is not integer PCM", f.audioFormat)
	}
	return f, nil
}

// checkEncodable validates the arguments of Encode without writing anything.
func checkEncodable(params model.ContainerParams, buf model.PCMBuffer) error {
	width := int(params.ByteWidth)
	if !pcm.ValidByteWidth(width) {
		return pkgerrors.NewInvalidArgumentError(fmt.Sprintf("unsupported byte width %d", width))
	}
	if params.SampleRate == 0 {
		return pkgerrors.NewInvalidArgumentError("sample rate is zero")
	}
	if len(buf)%(2*width) != 0 {
		return pkgerrors.NewInvalidArgumentError(
			fmt.Sprintf("buffer length %d is not a multiple of stereo frame size %d", len(buf), 2*width))
	}
	if uint64(params.SampleRate)*2*uint64(width) > math.MaxUint32 {
		return pkgerrors.NewInvalidArgumentError(
			fmt.Sprintf("sample rate %d gives a byte rate beyond 32 bits", params.SampleRate))
	}
	if uint64(len(buf)) > math.MaxUint32-(HeaderSize-8) {
		return pkgerrors.NewInvalidArgumentError(fmt.Sprintf("payload of %d bytes exceeds the RIFF size limit", len(buf)))
	}
	return nil
}

// Encode writes a stereo container holding buf. ChannelCount and FrameCount
// in params are ignored: the header is derived from len(buf).
func Encode(w io.Writer, params model.ContainerParams, buf model.PCMBuffer) error {
	if err := checkEncodable(params, buf); err != nil {
		return err
	}

	stereo := params
	stereo.ChannelCount = 2
	blockAlign := stereo.BlockAlign()
	dataSize := uint32(len(buf))

	header := make([]byte, HeaderSize)
	copy(header[0:4], tagRIFF)
	binary.LittleEndian.PutUint32(header[4:8], HeaderSize-8+dataSize)
	copy(header[8:12], tagWAVE)

	copy(header[12:16], tagFmt)
	binary.LittleEndian.PutUint32(header[16:20], pcmFmtSize)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], stereo.ChannelCount)
	binary.LittleEndian.PutUint32(header[24:28], stereo.SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], stereo.SampleRate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(stereo.BitsPerSample()))

	copy(header[36:40], tagData)
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(buf) == 0 {
		return nil
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

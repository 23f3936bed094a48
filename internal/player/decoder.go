package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned for files no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported format")

// audioDecoder is implemented by all format-specific decoders. Every decoder
// produces interleaved signed 16-bit little-endian PCM at the file's native
// sample rate and channel count.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder detects format by file extension and returns the appropriate decoder.
func newDecoder(f *os.File) (audioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func clamp16(sample int) int16 {
	if sample > 32767 {
		return 32767
	}
	if sample < -32768 {
		return -32768
	}
	return int16(sample)
}

// seekTarget resolves an io.Seeker offset against the current position and
// the stream length, clamping to [0, length].
func seekTarget(offset int64, whence int, pos, length int64) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = pos + offset
	case io.SeekEnd:
		newPos = length + offset
	default:
		return pos, fmt.Errorf("invalid whence: %d", whence)
	}
	if newPos < 0 {
		newPos = 0
	}
	if newPos > length {
		newPos = length
	}
	return newPos, nil
}

// --- MP3 decoder ---

// go-mp3 always emits 16-bit stereo. Encoder delay and padding recorded in
// a LAME header are trimmed so the stream starts and ends on real audio.
type mp3Decoder struct {
	dec    *mp3.Decoder
	start  int64 // trimmed bytes at the front
	length int64
	pos    int64
}

const mp3FrameBytes = 4

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	startSamples, endSamples, err := readMP3GaplessTrim(f)
	if err != nil {
		return nil, fmt.Errorf("reading MP3 header: %w", err)
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}

	d := &mp3Decoder{dec: dec, length: dec.Length()}
	trimmed := d.length - (startSamples+endSamples)*mp3FrameBytes
	if (startSamples > 0 || endSamples > 0) && trimmed > 0 {
		d.start = startSamples * mp3FrameBytes
		d.length = trimmed
		if _, err := dec.Seek(d.start, io.SeekStart); err != nil {
			return nil, fmt.Errorf("skipping MP3 encoder delay: %w", err)
		}
	}
	return d, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) {
	remaining := d.length - d.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := d.dec.Read(p)
	d.pos += int64(n)
	if err == nil && d.pos >= d.length {
		err = io.EOF
	}
	return n, err
}

func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	target, err := seekTarget(offset, whence, d.pos, d.length)
	if err != nil {
		return d.pos, err
	}
	target -= target % mp3FrameBytes
	if _, err := d.dec.Seek(d.start+target, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.pos = target
	return target, nil
}

func (d *mp3Decoder) Length() int64     { return d.length }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV decoder ---

type wavDecoder struct {
	file         *os.File
	format       *audio.Format
	buf          []byte
	ints         audio.IntBuffer
	pos          int64
	totalBytes   int64
	pcmStart     int64 // byte offset in file where PCM data begins
	srcBitDepth  int
	srcFrameSize int64 // bytes per sample frame in source format
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	// FwdToPCM positions the reader at the start of PCM data
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	format := dec.Format()
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, bitDepth)
	}
	srcFrameSize := int64(format.NumChannels) * int64(bitDepth) / 8
	if srcFrameSize == 0 {
		return nil, fmt.Errorf("invalid WAV frame size")
	}

	totalSourceFrames := dec.PCMLen() / srcFrameSize
	totalBytes := totalSourceFrames * int64(format.NumChannels) * 2 // 16-bit output

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}

	return &wavDecoder{
		file:         f,
		format:       format,
		ints:         audio.IntBuffer{Format: format, SourceBitDepth: bitDepth},
		srcBitDepth:  bitDepth,
		srcFrameSize: srcFrameSize,
		totalBytes:   totalBytes,
		pcmStart:     pcmStart,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.buf) > 0 {
		n := copy(p, d.buf)
		d.buf = d.buf[n:]
		d.pos += int64(n)
		return n, nil
	}
	if d.pos >= d.totalBytes {
		return 0, io.EOF
	}

	srcBytesPerSample := d.srcBitDepth / 8
	numOutputSamples := len(p) / 2
	if numOutputSamples == 0 {
		numOutputSamples = 1
	}
	// Stop at the end of the data chunk; trailing chunks are not PCM.
	if remaining := int((d.totalBytes - d.pos) / 2); numOutputSamples > remaining {
		numOutputSamples = remaining
	}
	srcBytes := make([]byte, numOutputSamples*srcBytesPerSample)
	n, err := io.ReadFull(d.file, srcBytes)
	samplesRead := n / srcBytesPerSample
	if samplesRead == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	d.decodeInts(srcBytes[:samplesRead*srcBytesPerSample])
	raw := make([]byte, len(d.ints.Data)*2)
	for i, v := range d.ints.Data {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(to16(v, d.srcBitDepth)))
	}

	written := copy(p, raw)
	if written < len(raw) {
		d.buf = raw[written:]
	}
	d.pos += int64(written)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return written, err
}

// decodeInts fills d.ints with source-depth samples. 8-bit WAV is unsigned
// and is recentred here so every depth is signed afterwards.
func (d *wavDecoder) decodeInts(src []byte) {
	step := d.srcBitDepth / 8
	count := len(src) / step
	if cap(d.ints.Data) < count {
		d.ints.Data = make([]int, count)
	}
	d.ints.Data = d.ints.Data[:count]
	for i := range count {
		off := i * step
		switch d.srcBitDepth {
		case 8:
			d.ints.Data[i] = int(src[off]) - 128
		case 16:
			d.ints.Data[i] = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			s := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF // sign extend
			}
			d.ints.Data[i] = int(s)
		case 32:
			d.ints.Data[i] = int(int32(binary.LittleEndian.Uint32(src[off:])))
		}
	}
}

func to16(v, bitDepth int) int16 {
	switch {
	case bitDepth > 16:
		return clamp16(v >> (bitDepth - 16))
	case bitDepth < 16:
		return clamp16(v << (16 - bitDepth))
	default:
		return clamp16(v)
	}
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos, err := seekTarget(offset, whence, d.pos, d.totalBytes)
	if err != nil {
		return d.pos, err
	}

	outputFrameSize := int64(d.format.NumChannels) * 2
	sampleFrame := newPos / outputFrameSize
	srcBytePos := sampleFrame * d.srcFrameSize

	if _, err := d.file.Seek(d.pcmStart+srcBytePos, io.SeekStart); err != nil {
		return d.pos, err
	}

	d.buf = nil
	d.pos = sampleFrame * outputFrameSize
	return d.pos, nil
}

func (d *wavDecoder) Length() int64     { return d.totalBytes }
func (d *wavDecoder) SampleRate() int   { return d.format.SampleRate }
func (d *wavDecoder) ChannelCount() int { return d.format.NumChannels }

// --- FLAC decoder ---

type flacDecoder struct {
	stream     *flac.Stream
	buf        []byte
	pos        int64
	totalBytes int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	totalBytes := int64(info.NSamples) * int64(channels) * 2 // 16-bit output

	return &flacDecoder{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
		totalBytes: totalBytes,
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.buf) > 0 {
		n := copy(p, d.buf)
		d.buf = d.buf[n:]
		d.pos += int64(n)
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, nSamples*d.channels*2)
	for i := range nSamples {
		for ch := range d.channels {
			sample := to16(int(frame.Subframes[ch].Samples[i]), d.bps)
			offset := (i*d.channels + ch) * 2
			binary.LittleEndian.PutUint16(raw[offset:], uint16(sample))
		}
	}

	written := copy(p, raw)
	if written < len(raw) {
		d.buf = raw[written:]
	}
	d.pos += int64(written)
	return written, nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos, err := seekTarget(offset, whence, d.pos, d.totalBytes)
	if err != nil {
		return d.pos, err
	}

	bytesPerFrame := int64(d.channels) * 2
	sampleNum := uint64(newPos / bytesPerFrame)
	if _, err := d.stream.Seek(sampleNum); err != nil {
		return d.pos, err
	}

	d.buf = nil
	d.pos = int64(sampleNum) * bytesPerFrame
	return d.pos, nil
}

func (d *flacDecoder) Length() int64     { return d.totalBytes }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis decoder ---

type oggDecoder struct {
	reader     *oggvorbis.Reader
	buf        []byte
	samples    []float32
	pos        int64
	totalBytes int64
	sampleRate int
	channels   int
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	totalBytes := reader.Length() * int64(channels) * 2

	return &oggDecoder{
		reader:     reader,
		sampleRate: reader.SampleRate(),
		channels:   channels,
		totalBytes: totalBytes,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.buf) > 0 {
		n := copy(p, d.buf)
		d.buf = d.buf[n:]
		d.pos += int64(n)
		return n, nil
	}

	want := len(p) / 2
	if want < d.channels {
		want = d.channels
	}
	if cap(d.samples) < want {
		d.samples = make([]float32, want)
	}
	samples := d.samples[:want]
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
	}

	written := copy(p, raw)
	if written < len(raw) {
		d.buf = raw[written:]
	}
	d.pos += int64(written)
	return written, err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos, err := seekTarget(offset, whence, d.pos, d.totalBytes)
	if err != nil {
		return d.pos, err
	}

	bytesPerFrame := int64(d.channels) * 2
	samplePos := newPos / bytesPerFrame
	if err := d.reader.SetPosition(samplePos); err != nil {
		return d.pos, err
	}

	d.buf = nil
	d.pos = samplePos * bytesPerFrame
	return d.pos, nil
}

func (d *oggDecoder) Length() int64     { return d.totalBytes }
func (d *oggDecoder) SampleRate() int   { return d.sampleRate }
func (d *oggDecoder) ChannelCount() int { return d.channels }

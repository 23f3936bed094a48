package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// mp3DecoderDelaySamples is the fixed synthesis delay of a Layer III
// decoder, added to the encoder delay stored in the LAME tag.
const mp3DecoderDelaySamples = 529

var errNoMP3Frame = errors.New("no mp3 frame header")

// readMP3GaplessTrim returns the number of samples to drop from the start
// and end of r. A stream without a LAME gapless tag yields zeros. The
// read offset is restored before returning.
func readMP3GaplessTrim(r io.ReadSeeker) (start, end int64, err error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	defer r.Seek(pos, io.SeekStart)

	frame, err := id3v2Size(r)
	if err != nil {
		return 0, 0, nil
	}
	if _, err := r.Seek(frame, io.SeekStart); err != nil {
		return 0, 0, err
	}

	// Header, optional CRC and side info precede the Xing/Info tag.
	buf := make([]byte, 4+2+32+256)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, 0, nil
	}
	buf = buf[:n]
	if len(buf) < 4 {
		return 0, 0, nil
	}

	skip, err := xingOffset(buf[:4])
	if err != nil || skip >= len(buf) {
		return 0, 0, nil
	}
	start, end, _ = parseLAMEGapless(buf[skip:])
	return start, end, nil
}

// id3v2Size returns the byte length of a leading ID3v2 tag, footer
// included, or zero when there is none.
func id3v2Size(r io.ReadSeeker) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	header := make([]byte, 10)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}
	if !bytes.Equal(header[:3], []byte("ID3")) {
		return 0, nil
	}
	size := int64(synchsafe(header[6:10])) + 10
	if header[5]&0x10 != 0 {
		size += 10
	}
	return size, nil
}

func synchsafe(b []byte) int {
	return int(b[0]&0x7f)<<21 | int(b[1]&0x7f)<<14 | int(b[2]&0x7f)<<7 | int(b[3]&0x7f)
}

// xingOffset returns where the Xing/Info tag starts relative to the frame
// header in b.
func xingOffset(b []byte) (int, error) {
	h := binary.BigEndian.Uint32(b)
	if h>>21 != 0x7ff {
		return 0, errNoMP3Frame
	}
	version := (h >> 19) & 0x3
	layer := (h >> 17) & 0x3
	if layer != 0x1 || version == 0x1 {
		return 0, errNoMP3Frame
	}

	mpeg1 := version == 0x3
	mono := (h>>6)&0x3 == 0x3
	side := 17
	switch {
	case mpeg1 && !mono:
		side = 32
	case !mpeg1 && mono:
		side = 9
	}

	crc := 0
	if (h>>16)&0x1 == 0 {
		crc = 2
	}
	return 4 + crc + side, nil
}

// parseLAMEGapless reads encoder delay and padding from a Xing/Info tag.
func parseLAMEGapless(b []byte) (start, end int64, ok bool) {
	if len(b) < 8 {
		return 0, 0, false
	}
	if tag := string(b[:4]); tag != "Xing" && tag != "Info" {
		return 0, 0, false
	}

	flags := binary.BigEndian.Uint32(b[4:8])
	off := 8
	for _, f := range []struct {
		bit  uint32
		size int
	}{{0x1, 4}, {0x2, 4}, {0x4, 100}, {0x8, 4}} {
		if flags&f.bit != 0 {
			off += f.size
		}
	}
	// The LAME extension stores the 12-bit delay and padding 21 bytes in.
	if len(b) < off+24 {
		return 0, 0, false
	}
	dp := b[off+21 : off+24]
	delay := int(dp[0])<<4 | int(dp[1]>>4)
	padding := int(dp[1]&0x0f)<<8 | int(dp[2])
	if delay == 0 && padding == 0 {
		return 0, 0, false
	}

	start = int64(delay + mp3DecoderDelaySamples)
	end = max(0, int64(padding-mp3DecoderDelaySamples))
	return start, end, true
}

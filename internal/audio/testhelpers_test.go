package audio

import "encoding/binary"

func makePCM16WAV(samples []int16, sampleRate int, channels int) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return makeWAV(1, 16, sampleRate, channels, data)
}

func makeWAV(format uint16, bitsPerSample int, sampleRate int, channels int, data []byte) []byte {
	bytesPerSample := bitsPerSample / 8
	if bytesPerSample == 0 {
		bytesPerSample = 1
	}
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + len(data))

	out := make([]byte, 12+8+fmtChunkSize+8+len(data))
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], format)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(bitsPerSample))
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(len(data)))
	off += 4

	copy(out[off:], data)
	return out
}

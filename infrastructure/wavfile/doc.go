// Package wavfile reads and writes the RIFF/WAVE integer PCM container.
//
// The writer always produces the canonical 44-byte header layout:
//
//	offset size  field
//	0      4     "RIFF"
//	4      4     total size (file length - 8), little-endian
//	8      4     "WAVE"
//	12     4     "fmt "
//	16     4     16
//	20     2     audio format (1 = integer PCM)
//	22     2     channel count
//	24     4     sample rate
//	28     4     byte rate (sampleRate * channels * byteWidth)
//	32     2     block align (channels * byteWidth)
//	34     2     bits per sample (byteWidth * 8)
//	36     4     "data"
//	40     4     payload size
//	44     n     payload
//
// The reader is stricter about sizes than most decoders: a total-size or
// payload-size field that does not agree with the bytes actually present is
// rejected as INVALID_FORMAT. Chunks other than "fmt " and "data" are skipped.
package wavfile

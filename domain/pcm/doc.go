// Package pcm holds the pure transforms applied to raw sample bytes: the
// left/right compatibility check and frame interleaving.
//
// Samples are never reinterpreted numerically. A sample is an opaque run of
// ByteWidth bytes, so 8, 16, 24 and 32-bit integer PCM are all handled by
// the same code path.
package pcm

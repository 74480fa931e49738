// Package audio provides the float32 audio buffer model and the DSP
// post-processing applied to synthesized speech: peak normalization,
// silence trimming, spectral noise gating, edge fades, and segment
// combination. It also handles WAV encoding/decoding and playback.
package audio

// Package engine abstracts the external Kokoro TTS engine. It defines
// the Synthesizer interface, the closed set of engine backends
// (subprocess, server, mock), the voice catalog, the audio stream
// abstraction, and the per-language engine cache.
package engine

// Package audio implements the container I/O boundary of the modem.
// It handles WAV encoding/decoding, PCM/float sample conversion, stereo
// down-mixing, resampling to the modem rate, and overlay mixing of the
// ultrasonic burst onto a host recording.
package audio

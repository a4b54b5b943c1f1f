// Package stego wires the cipher, frame codec, and FSK modem into the
// embed and extract pipelines exposed by the service.
package stego

//go:build ignore

// Manual smoke test for a running service: embeds a command over HTTP,
// feeds the returned WAV back through the decode endpoint and checks the
// round trip.
//
//	go run test_modem_client.go -addr http://localhost:8080 -command "execute:status"
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

type decodeResponse struct {
	Found   bool   `json:"found"`
	Command string `json:"command"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "Service base URL")
	command := flag.String("command", "execute:status", "Command to embed")
	keep := flag.String("keep", "", "Optional path to save the generated WAV")
	flag.Parse()

	log.Printf("Embedding command %q via %s", *command, *addr)

	reqBody, err := json.Marshal(map[string]string{"command": *command})
	if err != nil {
		log.Fatalf("Failed to marshal request: %v", err)
	}

	resp, err := http.Post(*addr+"/embed/audio", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		log.Fatalf("Embed request failed: %v", err)
	}
	wav, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		log.Fatalf("Failed to read embed response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Embed returned %d: %s", resp.StatusCode, wav)
	}
	log.Printf("Received %d bytes of WAV audio", len(wav))

	if *keep != "" {
		if err := os.WriteFile(*keep, wav, 0o644); err != nil {
			log.Fatalf("Failed to save WAV: %v", err)
		}
		log.Printf("Saved carrier audio to %s", *keep)
	}

	resp, err = http.Post(*addr+"/decode/audio", "audio/wav", bytes.NewReader(wav))
	if err != nil {
		log.Fatalf("Decode request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Fatalf("Failed to parse decode response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Decode returned %d", resp.StatusCode)
	}

	if !decoded.Found {
		log.Fatal("Round trip failed: no command found in the audio")
	}
	if decoded.Command != *command {
		log.Fatalf("Round trip mismatch: got %q, want %q", decoded.Command, *command)
	}

	fmt.Printf("Round trip OK: %q\n", decoded.Command)
}

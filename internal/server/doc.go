// Package server exposes the embed and extract pipelines over HTTP and the
// Model Context Protocol.
package server

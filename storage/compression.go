// Package storage persists simulation definitions and results: a
// repository interface plus a SQLite-backed implementation, and the
// gzip+base64 chunk compression spec.md §6 mandates for iteration tensors.
package storage

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// ChunkSize is the number of snapshots grouped into a single stored chunk,
// per spec.md §6.
const ChunkSize = 1000

// CompressMatrix JSON-encodes a 3D integer slice, gzips it, and base64s the
// result, mirroring the original `compress_matrix` helper.
func CompressMatrix(matrix [][][]int16) (string, error) {
	jsonBytes, err := json.Marshal(matrix)
	if err != nil {
		return "", fmt.Errorf("storage: marshal matrix: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(jsonBytes); err != nil {
		return "", fmt.Errorf("storage: gzip matrix: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("storage: close gzip writer: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecompressMatrix reverses CompressMatrix.
func DecompressMatrix(data string) ([][][]int16, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("storage: decode base64: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("storage: open gzip reader: %w", err)
	}
	defer gz.Close()

	jsonBytes, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("storage: read gzip stream: %w", err)
	}

	var matrix [][][]int16
	if err := json.Unmarshal(jsonBytes, &matrix); err != nil {
		return nil, fmt.Errorf("storage: unmarshal matrix: %w", err)
	}
	return matrix, nil
}

// ChunkHistory splits a full iteration history into ordered chunks of
// ChunkSize snapshots each, ready to be compressed and stored individually.
func ChunkHistory(history [][][]int16) [][][][]int16 {
	var chunks [][][][]int16
	for start := 0; start < len(history); start += ChunkSize {
		end := start + ChunkSize
		if end > len(history) {
			end = len(history)
		}
		chunks = append(chunks, history[start:end])
	}
	return chunks
}

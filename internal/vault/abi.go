package vault

import (
	"encoding/binary"
	"strings"
)

// decodeABIString decodes an ABI-encoded dynamic string return value
// (32-byte offset, 32-byte length, then data), falling back to the
// bytes32 layout some older tokens use for symbol().
func decodeABIString(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	if len(data) >= 64 {
		offset := wordToInt(data[:32])
		if offset >= 0 && offset+32 <= len(data) {
			length := wordToInt(data[offset : offset+32])
			start := offset + 32
			if length >= 0 && start <= len(data) {
				end := start + length
				if end > len(data) {
					end = len(data)
				}
				return cleanABIString(string(data[start:end]))
			}
		}
	}

	// bytes32 fallback
	end := len(data)
	if end > 32 {
		end = 32
	}
	return cleanABIString(string(data[:end]))
}

// wordToInt reads a 32-byte big-endian word as a small non-negative int,
// returning -1 for values that cannot be a sane offset or length.
func wordToInt(word []byte) int {
	for _, b := range word[:24] {
		if b != 0 {
			return -1
		}
	}
	value := binary.BigEndian.Uint64(word[24:])
	if value > 1<<20 {
		return -1
	}
	return int(value)
}

func cleanABIString(s string) string {
	return strings.TrimRight(s, "\x00")
}

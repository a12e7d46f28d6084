package util

import (
	"fmt"
	"os"
	"strings"
)

// WriteHexFile writes one 8-character lowercase hex word per line.
func WriteHexFile(path string, words []uint32) error {
	builder := strings.Builder{}
	for _, word := range words {
		builder.WriteString(fmt.Sprintf("%08x\n", word))
	}
	return os.WriteFile(path, []byte(builder.String()), 0644)
}

// WriteBinFile writes the flat little-endian byte buffer.
func WriteBinFile(path string, contents []byte) error {
	return os.WriteFile(path, contents, 0644)
}

package services

import (
	"bytes"
	"strconv"
)

// bytesReader wraps a byte slice in a bytes.Reader for use with excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func itoa(n int) string { return strconv.Itoa(n) }

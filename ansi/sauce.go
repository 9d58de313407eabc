package ansi

import (
	"bytes"
)

// SAUCE is the 128-byte metadata record the art scene appends to ANSI
// files. Doors must not paint it, so it is stripped before display.
//
// Record layout (trailing 128 bytes):
//
//	ID       [5]byte  "SAUCE"
//	Version  [2]byte  "00"
//	Title    [35]byte
//	Author   [20]byte
//	Group    [20]byte
//	Date     [8]byte  YYYYMMDD
//	FileSize int32
//	DataType byte
//	FileType byte
//	TInfo1-4 uint16
//	Comments byte    number of 64-byte comment lines
//	Flags    byte
//	Filler   [22]byte
const (
	sauceIDLen  = 5
	sauceRecLen = 128
)

var sauceID = []byte("SAUCE")

// StripSauce removes the SAUCE record, and its comment block when
// present, from the tail of data.
func StripSauce(data []byte) []byte {
	if len(data) < sauceRecLen {
		return data
	}

	recStart := len(data) - sauceRecLen
	if !bytes.Equal(data[recStart:recStart+sauceIDLen], sauceID) {
		return data
	}

	trimLen := sauceRecLen
	if comments := int(data[recStart+104]); comments > 0 {
		// 5 bytes "COMNT" plus 64 per line.
		trimLen += 5 + 64*comments
	}
	if trimLen > len(data) {
		trimLen = len(data)
	}

	trimmed := data[:len(data)-trimLen]

	// Art files often end with a DOS EOF marker just before the record.
	if n := len(trimmed); n > 0 && trimmed[n-1] == 0x1A {
		trimmed = trimmed[:n-1]
	}
	return trimmed
}

// Package rodata loads the read-only-data section of an executable from the
// hex-dump output of objdump's section-dump mode, so that addresses pointing
// at string literals can be resolved to the literals themselves.
package rodata

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SectionMarker is the line objdump prints right before the hex dump starts.
const SectionMarker = "Contents of section .rodata:"

// Buffer holds the contiguous bytes of the .rodata section plus the virtual
// address they were loaded at.
type Buffer struct {
	Base uint64
	Data []byte
}

// ParseHexDump reads objdump -sj .rodata output. Everything up to the section
// marker is skipped; after that each line is "<addr> <word>*4 <ascii>" where
// every word is four bytes of hex. The first address seen becomes the base.
func ParseHexDump(r io.Reader) (*Buffer, error) {
	buf := &Buffer{}

	parse := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !parse {
			if strings.HasPrefix(line, SectionMarker) {
				parse = true
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if buf.Base == 0 {
			addr, err := strconv.ParseUint(fields[0], 16, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad address column %q", fields[0])
			}
			buf.Base = addr
		}

		// exactly four data words per line; the trailing column is the
		// ASCII rendering and must not be decoded
		var hex strings.Builder
		for i := 1; i <= 4 && i < len(fields); i++ {
			hex.WriteString(fields[i])
		}
		h := hex.String()
		for i := 0; i+1 < len(h); i += 2 {
			b, err := strconv.ParseUint(h[i:i+2], 16, 8)
			if err != nil {
				return nil, errors.Wrapf(err, "bad hex byte %q", h[i:i+2])
			}
			buf.Data = append(buf.Data, byte(b))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return buf, nil
}

// Contains reports whether addr falls inside [Base, Base+len).
func (b *Buffer) Contains(addr uint64) bool {
	return b != nil && len(b.Data) > 0 && addr >= b.Base && addr < b.Base+uint64(len(b.Data))
}

// CString returns the NUL-terminated string starting at addr, or everything
// up to the end of the section if no NUL follows.
func (b *Buffer) CString(addr uint64) string {
	off := addr - b.Base
	s := b.Data[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// IsOffsetSlot reports whether the 8-byte slot at addr ends in four zero
// bytes. 4-byte integers stored in 8-byte fields occur a lot in .rodata and
// would otherwise decode as garbage literals.
func (b *Buffer) IsOffsetSlot(addr uint64) bool {
	off := addr - b.Base
	if off+8 > uint64(len(b.Data)) {
		return false
	}
	for _, c := range b.Data[off+4 : off+8] {
		if c != 0 {
			return false
		}
	}
	return true
}

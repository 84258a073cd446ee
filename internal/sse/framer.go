package sse

import "bytes"

// LineFramer splits an incoming byte stream into complete lines, carrying
// any trailing partial line over to the next Feed call. Splitting happens
// at the byte level, so multi-byte UTF-8 sequences that straddle two reads
// are never broken: they only surface once their line is complete.
type LineFramer struct {
	rest []byte
}

// Feed appends p to the carried remainder and returns every complete line
// received so far, without the trailing newline. A \r before the newline is
// stripped. The returned slices are copies and remain valid after the next
// Feed.
func (f *LineFramer) Feed(p []byte) [][]byte {
	if len(p) == 0 {
		return nil
	}
	f.rest = append(f.rest, p...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(f.rest, '\n')
		if i < 0 {
			break
		}
		line := f.rest[:i]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		lines = append(lines, append([]byte(nil), line...))
		f.rest = f.rest[i+1:]
	}
	return lines
}

// Pending reports whether a partial line is buffered.
func (f *LineFramer) Pending() bool { return len(f.rest) > 0 }

// Reset discards any buffered partial line.
func (f *LineFramer) Reset() { f.rest = nil }

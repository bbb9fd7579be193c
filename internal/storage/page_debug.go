package storage

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Fprintf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

func (e *errWriter) Fprintln(a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, a...)
}

// pretty flag names
func flagNames(f uint16) string {
	var names []string
	if f&PageFlagUsed != 0 {
		names = append(names, "USED")
	}
	if f&PageFlagFree != 0 {
		names = append(names, "FREE")
	}
	if f&PageFlagHeader != 0 {
		names = append(names, "HEADER")
	}
	if rest := f &^ (PageFlagUsed | PageFlagFree | PageFlagHeader); rest != 0 {
		names = append(names, fmt.Sprintf("UNKNOWN(0x%04x)", rest))
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "|")
}

// ASCII preview: printable -> itself, else '.'
func asciiPreview(b []byte) string {
	var buf bytes.Buffer
	for _, c := range b {
		r := rune(c)
		if r < unicode.MaxASCII && unicode.IsPrint(r) {
			buf.WriteRune(r)
		} else {
			buf.WriteByte('.')
		}
	}
	return buf.String()
}

// Debug prints the header and the non-zero prefix of the data area, 16 bytes
// per row. At most maxBytes data bytes are shown (all of them when maxBytes <= 0).
func (p *Page) Debug(w io.Writer, maxBytes int) error {
	ew := &errWriter{w: w}

	data := p.Data()
	used := len(bytes.TrimRight(data, "\x00"))
	shown := used
	if maxBytes > 0 && shown > maxBytes {
		shown = maxBytes
	}

	ew.Fprintf("=== Page Debug ===\n")
	ew.Fprintf("pageID=%d flags=0x%04x (%s) nextFree=%d\n",
		p.PageNumber(), p.flags(), flagNames(p.flags()), p.nextFree())
	ew.Fprintf("pageSize=%d dataSize=%d nonZero=%d\n", PageSize, len(data), used)

	ew.Fprintln("\n-- Data --")
	if used == 0 {
		ew.Fprintln("(empty)")
	}
	for off := 0; off < shown && ew.err == nil; off += 16 {
		row := data[off:min(off+16, shown)]
		ew.Fprintf("%06x  %-32s  %s\n", off, hex.EncodeToString(row), asciiPreview(row))
	}
	if shown < used {
		ew.Fprintf("... %d more bytes\n", used-shown)
	}

	ew.Fprintln("=== End Page Debug ===")
	return ew.err
}

func (p *Page) DebugString() string {
	var b bytes.Buffer
	if err := p.Debug(&b, 0); err != nil {
		_, _ = b.WriteString("\n<debug write error: " + err.Error() + ">\n")
	}
	return b.String()
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/storage"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  read <page>              pin a page and show its first bytes
  alloc                    allocate a new page (left pinned)
  write <page> <text>      read, overwrite the data area with text, unpin dirty
  unpin <page> [dirty]     drop one pin
  flush                    write back and drop every cached page of the file
  dispose <page>           drop a page from the pool and delete it from the file
  dump <page>              hex dump of a page (pinned for the duration)
  print                    dump frame descriptors
  stats                    show pool counters
  pages                    list allocated pages of the file
  help                     show this text
  quit | exit              close the pool and leave`

// shell runs one command per line against a pool and a single file.
type shell struct {
	bm   *bufferpool.BufMgr
	file *storage.PagedFile
	out  io.Writer
}

func (s *shell) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit", "\\q":
		return errQuit
	case "help", "\\help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "read":
		pageNo, err := pageArg(args)
		if err != nil {
			return err
		}
		p, err := s.bm.ReadPage(s.file, pageNo)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "page %d: %q\n", pageNo, preview(p.Data()))
		return nil
	case "alloc":
		pageNo, _, err := s.bm.AllocPage(s.file)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "allocated page %d (pinned)\n", pageNo)
		return nil
	case "write":
		if len(args) < 2 {
			return errors.New("usage: write <page> <text>")
		}
		pageNo, err := pageArg(args[:1])
		if err != nil {
			return err
		}
		p, err := s.bm.ReadPage(s.file, pageNo)
		if err != nil {
			return err
		}
		data := p.Data()
		clear(data)
		copy(data, strings.Join(args[1:], " "))
		return s.bm.UnPinPage(s.file, pageNo, true)
	case "unpin":
		pageNo, err := pageArg(args)
		if err != nil {
			return err
		}
		dirty := len(args) > 1 && args[1] == "dirty"
		return s.bm.UnPinPage(s.file, pageNo, dirty)
	case "flush":
		return s.bm.FlushFile(s.file)
	case "dispose":
		pageNo, err := pageArg(args)
		if err != nil {
			return err
		}
		return s.bm.DisposePage(s.file, pageNo)
	case "dump":
		pageNo, err := pageArg(args)
		if err != nil {
			return err
		}
		h, err := s.bm.Pin(s.file, pageNo)
		if err != nil {
			return err
		}
		return multierr.Append(h.Page().Debug(s.out, 512), h.Release())
	case "print":
		s.bm.PrintSelf(s.out)
		return nil
	case "stats":
		fmt.Fprintln(s.out, s.bm.Stats().String())
		return nil
	case "pages":
		ids, err := s.file.PageIDs()
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s: %d pages %v\n", s.file.Filename(), len(ids), ids)
		return nil
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func pageArg(args []string) (storage.PageID, error) {
	if len(args) == 0 {
		return 0, errors.New("missing page number")
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad page number %q: %w", args[0], err)
	}
	return storage.PageID(n), nil
}

// preview returns the data area up to the first NUL, capped at 64 bytes.
func preview(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	if len(data) > 64 {
		data = data[:64]
	}
	return string(data)
}

package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/storage"
)

func newTestShell(t *testing.T, size int) (*shell, *bytes.Buffer) {
	t.Helper()

	file, err := storage.Create(afero.NewMemMapFs(), "/data", "pages")
	require.NoError(t, err)
	bm, err := bufferpool.New(size,
		bufferpool.WithPolicy(bufferpool.PolicyLRU),
		bufferpool.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &shell{bm: bm, file: file, out: out}, out
}

func TestShell_AllocWriteRead(t *testing.T) {
	sh, out := newTestShell(t, 2)

	require.NoError(t, sh.exec("alloc"))
	require.Contains(t, out.String(), "allocated page 1")
	require.NoError(t, sh.exec("unpin 1"))

	require.NoError(t, sh.exec("write 1 hello buffer pool"))
	require.NoError(t, sh.exec("flush"))

	out.Reset()
	require.NoError(t, sh.exec("read 1"))
	require.Contains(t, out.String(), `page 1: "hello buffer pool"`)
	require.NoError(t, sh.exec("unpin 1"))

	out.Reset()
	require.NoError(t, sh.exec("dump 1"))
	require.Contains(t, out.String(), "pageID=1 flags=0x0001 (USED)")
	require.Contains(t, out.String(), "hello buffer poo")

	out.Reset()
	require.NoError(t, sh.exec("stats"))
	require.Contains(t, out.String(), "allocs=1")
	require.Contains(t, out.String(), "write_backs=1")
}

func TestShell_PrintAndPages(t *testing.T) {
	sh, out := newTestShell(t, 2)

	require.NoError(t, sh.exec("alloc"))
	require.NoError(t, sh.exec("alloc"))
	require.NoError(t, sh.exec("unpin 2 dirty"))

	out.Reset()
	require.NoError(t, sh.exec("print"))
	require.Contains(t, out.String(), "Total Number of Valid Frames:2")

	require.NoError(t, sh.exec("unpin 1"))
	require.NoError(t, sh.exec("dispose 1"))

	out.Reset()
	require.NoError(t, sh.exec("pages"))
	require.Contains(t, out.String(), "1 pages [2]")
}

func TestShell_Errors(t *testing.T) {
	sh, _ := newTestShell(t, 1)

	require.ErrorIs(t, sh.exec("quit"), errQuit)
	require.ErrorIs(t, sh.exec("EXIT"), errQuit)
	require.NoError(t, sh.exec("   "))

	require.ErrorContains(t, sh.exec("frobnicate"), "unknown command")
	require.ErrorContains(t, sh.exec("read"), "missing page number")
	require.ErrorContains(t, sh.exec("read x"), "bad page number")
	require.ErrorContains(t, sh.exec("write 1"), "usage")

	require.ErrorIs(t, sh.exec("unpin 3"), bufferpool.ErrHashNotFound)
	require.ErrorIs(t, sh.exec("read 3"), storage.ErrPageNotAllocated)

	require.NoError(t, sh.exec("alloc"))
	require.ErrorIs(t, sh.exec("alloc"), bufferpool.ErrBufferExceeded)
}

func TestPreview(t *testing.T) {
	require.Equal(t, "abc", preview([]byte{'a', 'b', 'c', 0, 'd'}))
	require.Len(t, preview(bytes.Repeat([]byte{'x'}, 100)), 64)
	require.Equal(t, "", preview(make([]byte, 8)))
}

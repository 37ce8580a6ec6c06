package fsops

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// CopyFile copies src to dst, preserving permission bits and access/
// modification times. The read path observes ctx, so a cancellation that
// arrives mid-copy surfaces as the context's error; a partially written
// destination may remain and is overwritten on retry.
func CopyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, &ctxReader{ctx: ctx, r: in}); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}

	return CopyMetadata(dst, info)
}

// CopyMetadata stamps the permission bits and access/modification times
// from info onto path.
func CopyMetadata(path string, info fs.FileInfo) error {
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Chtimes(path, atime(info), info.ModTime()); err != nil {
		return fmt.Errorf("chtimes %s: %w", path, err)
	}
	return nil
}

// ctxReader fails the next Read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

package solid

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Load opens the file at path and decodes it with read.
func Load[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrap(err, "load")
	}
	defer f.Close()
	res, err := read(bufio.NewReader(f))
	if err != nil {
		return zero, errors.Wrapf(err, "load %s", path)
	}
	return res, nil
}

// Save encodes obj with write into a new file at path.
func Save[T any](path string, obj T, write func(io.Writer, T) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save")
	}
	w := bufio.NewWriter(f)
	if err := write(w, obj); err != nil {
		f.Close()
		return errors.Wrapf(err, "save %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "save %s", path)
	}
	return errors.Wrapf(f.Close(), "save %s", path)
}

package iostream

import (
	"fmt"
	"io"
	"os"
	"path"
)

type lazyFile struct {
	name   string
	f      io.WriteCloser
	broken bool
}

// NewLazyFile returns a writer that creates the file (and its directory)
// on first write. Creation failure is reported once and the writer goes
// dark; it never propagates the failure to its caller.
func NewLazyFile(filename string) io.WriteCloser {
	return &lazyFile{name: filename}
}

func (f *lazyFile) Write(bs []byte) (int, error) {
	if f.broken {
		return len(bs), nil
	}
	if f.f == nil {
		if err := f.create(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log file %s: %v\n", f.name, err)
			f.broken = true
			return len(bs), nil
		}
	}
	return f.f.Write(bs)
}

func (f *lazyFile) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *lazyFile) create() error {
	err := os.MkdirAll(path.Dir(f.name), os.ModePerm)
	if err != nil {
		return err
	}
	f.f, err = os.Create(f.name)
	return err
}

func NewFileRedirector(name string) *StdWriters {
	return &StdWriters{
		Stdout: NewLazyFile(name + ".stdout.log"),
		Stderr: NewLazyFile(name + ".stderr.log"),
	}
}

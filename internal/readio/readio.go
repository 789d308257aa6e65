// Package readio demultiplexes compiler inputs (.class/.dex/.jar/.zip/.apk)
// by extension/signature and reads them in parallel. The actual
// classfile/DEX binary codecs are external collaborators; this package
// only owns the parallel dispatch and interning handoff into the program
// graph's Factory.
package readio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mabhi256/r8shrink/internal/graph"
)

// Kind classifies one input path by extension/signature.
type Kind int

const (
	KindClass Kind = iota
	KindDex
	KindJar
	KindZip
	KindApk
	KindUnknown
)

func ClassifyPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".class":
		return KindClass
	case ".dex":
		return KindDex
	case ".jar":
		return KindJar
	case ".zip":
		return KindZip
	case ".apk":
		return KindApk
	default:
		return KindUnknown
	}
}

// ClassReader is the external per-format reader: given a path, populate
// classes into factory (interning as it goes) and return them.
type ClassReader interface {
	Read(ctx context.Context, path string, factory *graph.Factory) ([]*graph.Class, error)
}

var registry = map[Kind]ClassReader{}

// Register installs the ClassReader for kind, the way image.RegisterFormat
// lets an external codec package attach itself without this package
// knowing about it. The classfile/DEX binary codecs themselves are out of
// scope here; a deployment links in the codec package it wants and calls
// Register from that package's init.
func Register(kind Kind, r ClassReader) {
	registry[kind] = r
}

// DefaultReaders returns the process-wide registry populated by Register.
func DefaultReaders() map[Kind]ClassReader {
	return registry
}

// Reader dispatches each input path to the reader for its Kind and
// collects the union of classes. Factory interning is serialized per
// factory; parallel reads therefore only race on I/O, not on the
// interning tables.
type Reader struct {
	factory *graph.Factory
	readers map[Kind]ClassReader
}

func NewReader(factory *graph.Factory, readers map[Kind]ClassReader) *Reader {
	return &Reader{factory: factory, readers: readers}
}

// ReadAll reads every path in parallel via errgroup: program, classpath,
// and library resources have no dependency on one another until they are
// merged into the program graph.
func (r *Reader) ReadAll(ctx context.Context, paths []string, origin graph.Origin) ([]*graph.Class, error) {
	results := make([][]*graph.Class, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		eg.Go(func() error {
			kind := ClassifyPath(p)
			reader, ok := r.readers[kind]
			if !ok {
				return fmt.Errorf("no reader registered for %s (kind %d)", p, kind)
			}
			classes, err := reader.Read(ctx, p, r.factory)
			if err != nil {
				return fmt.Errorf("reading %s: %w", p, err)
			}
			for _, c := range classes {
				c.Origin = origin
			}
			results[i] = classes
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var out []*graph.Class
	for _, cs := range results {
		out = append(out, cs...)
	}
	return out, nil
}

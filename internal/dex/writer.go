package dex

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mabhi256/r8shrink/internal/graph"
)

// Codec is the external DEX binary codec: given a virtual file's class
// mapping, produce the encoded bytes for that DEX. This package owns
// distribution and driving the codecs in parallel, not the DEX file
// format itself.
type Codec interface {
	Encode(vf *VirtualFile) ([]byte, error)
}

var defaultCodec Codec

// RegisterCodec installs the process-wide DEX codec, mirroring
// internal/readio.Register: a deployment links in its own binary encoder
// package and calls this from that package's init.
func RegisterCodec(c Codec) { defaultCodec = c }

// DefaultCodec returns whatever RegisterCodec last installed, or nil.
func DefaultCodec() Codec { return defaultCodec }

// WriteResult is one emitted DEX file's bytes, keyed by its sequential id.
type WriteResult struct {
	ID    int
	Bytes []byte
}

// ApplicationWriter is the writer driver: for each non-empty virtual DEX,
// in parallel, invoke the codec; collect bytes; the rename map and
// main-dex list are read before the codec destructively consumes class
// state.
type ApplicationWriter struct {
	codec Codec
	lens  *graph.Lens
}

func NewApplicationWriter(codec Codec, lens *graph.Lens) *ApplicationWriter {
	return &ApplicationWriter{codec: codec, lens: lens}
}

// Write first renders the rename map and main-dex list from the files'
// class state, then emits every non-empty file in parallel via errgroup,
// one task per DEX file, so the rendering happens before any codec sees
// vf.Classes.
func (w *ApplicationWriter) Write(files []*VirtualFile) ([]WriteResult, string, string, error) {
	renameMap := w.renderRenameMap(files)
	mainDexList := w.renderMainDexList(files)

	results := make([]WriteResult, len(files))
	eg, _ := errgroup.WithContext(context.Background())
	for i, vf := range files {
		i, vf := i, vf
		if len(vf.Classes) == 0 {
			continue
		}
		eg.Go(func() error {
			b, err := w.codec.Encode(vf)
			if err != nil {
				return fmt.Errorf("encoding dex #%d: %w", vf.ID, err)
			}
			results[i] = WriteResult{ID: vf.ID, Bytes: b}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, "", "", err
	}

	var nonEmpty []WriteResult
	for _, r := range results {
		if r.Bytes != nil {
			nonEmpty = append(nonEmpty, r)
		}
	}
	sort.Slice(nonEmpty, func(i, j int) bool { return nonEmpty[i].ID < nonEmpty[j].ID })
	return nonEmpty, renameMap, mainDexList, nil
}

// renderRenameMap emits the Proguard map format: "source -> renamed",
// with inner-class scoping left to the renamed descriptor's own `$`
// structure. It writes one line per class only; method and field
// renamings are not listed.
func (w *ApplicationWriter) renderRenameMap(files []*VirtualFile) string {
	var lines []string
	for _, vf := range files {
		for _, c := range vf.Classes {
			renamed := w.lens.LookupType(c.Type).String()
			lines = append(lines, fmt.Sprintf("%s -> %s", dottedName(c.Type.String()), dottedName(renamed)))
		}
	}
	sort.Strings(lines)
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

// renderMainDexList emits newline-separated "pkg/Name.class" entries for
// the primary DEX's classes.
func (w *ApplicationWriter) renderMainDexList(files []*VirtualFile) string {
	if len(files) == 0 {
		return ""
	}
	var names []string
	for _, c := range files[0].Classes {
		names = append(names, classFileName(c.Type.String()))
	}
	sort.Strings(names)
	out := ""
	for _, n := range names {
		out += n + "\n"
	}
	return out
}

func dottedName(descriptor string) string {
	d := descriptor
	if len(d) >= 2 && d[0] == 'L' && d[len(d)-1] == ';' {
		d = d[1 : len(d)-1]
	}
	out := make([]byte, len(d))
	for i := range d {
		if d[i] == '/' {
			out[i] = '.'
		} else {
			out[i] = d[i]
		}
	}
	return string(out)
}

func classFileName(descriptor string) string {
	d := descriptor
	if len(d) >= 2 && d[0] == 'L' && d[len(d)-1] == ';' {
		d = d[1 : len(d)-1]
	}
	return d + ".class"
}

// Package pdfdoc adapts unipdf to the engine's document collaborator
// surface: metadata, per-page content streams, embedded image
// descriptors, image deletion, and persistence. All container-format
// parsing lives behind this package; the engine never sees raw PDF
// structure.
package pdfdoc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/unidoc/unipdf/v3/core"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/model/optimize"

	watermark "github.com/jonatw/pdf-watermark-remove"
	"github.com/jonatw/pdf-watermark-remove/logger"
)

// Opener opens PDF documents from the filesystem.
type Opener struct{}

// NewOpener returns a filesystem-backed Opener.
func NewOpener() *Opener { return &Opener{} }

// Open reads and parses the PDF at path. Unreadable or corrupt input
// fails with an error wrapping watermark.ErrInvalidDocument.
func (o *Opener) Open(path string) (watermark.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", watermark.ErrInvalidDocument, path, err)
	}

	reader, err := model.NewPdfReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: parse %s: %v", watermark.ErrInvalidDocument, path, err)
	}

	if encrypted, err := reader.IsEncrypted(); err == nil && encrypted {
		// Empty user password is the only case worth trying.
		if ok, err := reader.Decrypt([]byte("")); err != nil || !ok {
			f.Close()
			return nil, fmt.Errorf("%w: %s is password protected", watermark.ErrInvalidDocument, path)
		}
	}

	doc := &pdfDocument{
		file:   f,
		reader: reader,
		pages:  reader.PageList,
		meta:   readMeta(reader),
	}

	// Decode every content stream up front. Afterwards reads and writes
	// touch only per-page slots, which keeps concurrent access to
	// distinct pages safe without locking.
	doc.streams = make([][][]byte, len(doc.pages))
	doc.dirty = make([]bool, len(doc.pages))
	for i, page := range doc.pages {
		contents, err := page.GetContentStreams()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: decode streams on page %d of %s: %v",
				watermark.ErrInvalidDocument, i, path, err)
		}
		doc.streams[i] = make([][]byte, len(contents))
		for j, c := range contents {
			doc.streams[i][j] = []byte(c)
		}
	}

	logger.Debug("opened document", "path", path, "pages", len(doc.pages))
	return doc, nil
}

var _ watermark.Document = (*pdfDocument)(nil)

type pdfDocument struct {
	file    *os.File
	reader  *model.PdfReader
	pages   []*model.PdfPage
	streams [][][]byte
	dirty   []bool
	meta    watermark.Meta
}

func readMeta(reader *model.PdfReader) watermark.Meta {
	var meta watermark.Meta
	info, err := reader.GetPdfInfo()
	if err != nil || info == nil {
		return meta
	}
	meta.Title = decodedString(info.Title)
	meta.Author = decodedString(info.Author)
	meta.Subject = decodedString(info.Subject)
	meta.Keywords = decodedString(info.Keywords)
	meta.Creator = decodedString(info.Creator)
	meta.Producer = decodedString(info.Producer)
	return meta
}

func decodedString(s *core.PdfObjectString) string {
	if s == nil {
		return ""
	}
	return s.Decoded()
}

func (d *pdfDocument) Metadata() watermark.Meta { return d.meta }

func (d *pdfDocument) PageCount() int { return len(d.pages) }

func (d *pdfDocument) StreamIDs(page int) ([]int, error) {
	if page < 0 || page >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	ids := make([]int, len(d.streams[page]))
	for i := range ids {
		ids[i] = i
	}
	return ids, nil
}

func (d *pdfDocument) ReadStream(page, id int) ([]byte, error) {
	if err := d.checkStream(page, id); err != nil {
		return nil, err
	}
	return d.streams[page][id], nil
}

func (d *pdfDocument) WriteStream(page, id int, data []byte) error {
	if err := d.checkStream(page, id); err != nil {
		return err
	}
	d.streams[page][id] = data
	d.dirty[page] = true
	return nil
}

func (d *pdfDocument) checkStream(page, id int) error {
	if page < 0 || page >= len(d.pages) {
		return fmt.Errorf("page %d out of range", page)
	}
	if id < 0 || id >= len(d.streams[page]) {
		return fmt.Errorf("stream %d out of range on page %d", id, page)
	}
	return nil
}

// Images lists the image XObjects of one page in resource-dictionary
// order. The XObject name doubles as the opaque image identifier.
func (d *pdfDocument) Images(page int) ([]watermark.ImageDescriptor, error) {
	xobjects, err := d.xobjects(page)
	if err != nil || xobjects == nil {
		return nil, err
	}

	var images []watermark.ImageDescriptor
	for _, name := range xobjects.Keys() {
		stream, ok := core.GetStream(xobjects.Get(name))
		if !ok {
			continue
		}
		dict := stream.PdfObjectDictionary
		subtype, ok := core.GetName(dict.Get("Subtype"))
		if !ok || string(*subtype) != "Image" {
			continue
		}
		width, ok := core.GetIntVal(dict.Get("Width"))
		if !ok {
			continue
		}
		height, ok := core.GetIntVal(dict.Get("Height"))
		if !ok {
			continue
		}
		images = append(images, watermark.ImageDescriptor{
			ID:     string(name),
			Width:  width,
			Height: height,
		})
	}
	return images, nil
}

func (d *pdfDocument) DeleteImage(page int, id string) error {
	xobjects, err := d.xobjects(page)
	if err != nil {
		return err
	}
	name := core.PdfObjectName(id)
	if xobjects == nil || xobjects.Get(name) == nil {
		return fmt.Errorf("image %s not found on page %d", id, page)
	}
	xobjects.Remove(name)
	return nil
}

func (d *pdfDocument) xobjects(page int) (*core.PdfObjectDictionary, error) {
	if page < 0 || page >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	resources := d.pages[page].Resources
	if resources == nil || resources.XObject == nil {
		return nil, nil
	}
	dict, ok := core.GetDict(resources.XObject)
	if !ok {
		return nil, nil
	}
	return dict, nil
}

// Save flushes rewritten streams back into their pages and writes the
// whole document to path. The output lands in a temp file first and is
// renamed into place only after a successful write, so a failure never
// leaves a partial file visible at path.
func (d *pdfDocument) Save(path string, opts watermark.SaveOptions) error {
	var encoder core.StreamEncoder = core.NewRawEncoder()
	if opts.Recompress {
		encoder = core.NewFlateEncoder()
	}

	for i, page := range d.pages {
		if !d.dirty[i] {
			continue
		}
		contents := make([]string, len(d.streams[i]))
		for j, s := range d.streams[i] {
			contents[j] = string(s)
		}
		if err := page.SetContentStreams(contents, encoder); err != nil {
			return fmt.Errorf("%w: set streams on page %d: %v", watermark.ErrWrite, i, err)
		}
	}

	writer := model.NewPdfWriter()
	if opts.Compact {
		writer.SetOptimizer(optimize.New(optimize.Options{
			CombineDuplicateDirectObjects:   true,
			CombineIdenticalIndirectObjects: true,
			CombineDuplicateStreams:         true,
			UseObjectStreams:                true,
		}))
	}
	for i, page := range d.pages {
		if err := writer.AddPage(page); err != nil {
			return fmt.Errorf("%w: add page %d: %v", watermark.ErrWrite, i, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".unmark-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: create temp output: %v", watermark.ErrWrite, err)
	}
	tmpPath := tmp.Name()

	if err := writer.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", watermark.ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close %s: %v", watermark.ErrWrite, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename into %s: %v", watermark.ErrWrite, path, err)
	}
	return nil
}

func (d *pdfDocument) Close() error {
	return d.file.Close()
}

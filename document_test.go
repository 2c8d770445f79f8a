package watermark

import (
	"fmt"
	"sync"
)

// fakeDoc is an in-memory Document used by the strategy tests. It
// serializes all access through one mutex, which is stricter than the
// contract requires but keeps the race detector quiet.
type fakeDoc struct {
	mu        sync.Mutex
	meta      Meta
	pages     []*fakePage
	saved     bool
	savedPath string
	saveOpts  SaveOptions
	saveErr   error
	writeErrs map[int]error // page index -> forced WriteStream error
	deleted   []string      // "page/id" in deletion order
	closed    bool
}

type fakePage struct {
	streams [][]byte
	images  []ImageDescriptor
}

func (d *fakeDoc) Metadata() Meta { return d.meta }

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) StreamIDs(page int) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page < 0 || page >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	ids := make([]int, len(d.pages[page].streams))
	for i := range ids {
		ids[i] = i
	}
	return ids, nil
}

func (d *fakeDoc) ReadStream(page, id int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pages[page].streams[id], nil
}

func (d *fakeDoc) WriteStream(page, id int, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeErrs[page]; err != nil {
		return err
	}
	d.pages[page].streams[id] = data
	return nil
}

func (d *fakeDoc) Images(page int) ([]ImageDescriptor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page < 0 || page >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	return d.pages[page].images, nil
}

func (d *fakeDoc) DeleteImage(page int, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.pages[page]
	for i, img := range p.images {
		if img.ID == id {
			p.images = append(p.images[:i], p.images[i+1:]...)
			d.deleted = append(d.deleted, fmt.Sprintf("%d/%s", page, id))
			return nil
		}
	}
	return fmt.Errorf("image %s not found on page %d", id, page)
}

func (d *fakeDoc) Save(path string, opts SaveOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saveErr != nil {
		return d.saveErr
	}
	d.saved = true
	d.savedPath = path
	d.saveOpts = opts
	return nil
}

func (d *fakeDoc) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

type fakeOpener struct {
	doc *fakeDoc
	err error
}

func (o *fakeOpener) Open(path string) (Document, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

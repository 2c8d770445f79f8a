package watermark

// Meta is the unified document metadata model the engine consumes.
// Only Producer participates in strategy selection; the remaining fields
// ride along for host-side logging and reporting.
type Meta struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	ModDate      string `json:"modDate,omitempty"`
}

// ImageDescriptor describes one embedded image on a page. ID is an opaque
// identifier in the host library's namespace, valid for DeleteImage on the
// same page.
type ImageDescriptor struct {
	ID     string
	Width  int
	Height int
}

// SaveOptions control how the collaborator persists a rewritten document.
type SaveOptions struct {
	// Compact drops unreferenced objects during save.
	Compact bool
	// Recompress re-encodes rewritten content streams.
	Recompress bool
}

// Document is the narrow capability surface the engine needs from the
// host document-manipulation library. The engine never parses the
// container format itself; everything binary-level happens behind this
// interface.
//
// Stream identifiers returned by StreamIDs are only meaningful for the
// page they were listed on, in the order the host reports them.
type Document interface {
	// Metadata returns document-level metadata. Missing entries are
	// zero-valued, never an error.
	Metadata() Meta

	// PageCount returns the number of pages.
	PageCount() int

	// StreamIDs lists content-stream identifiers for one page, in host order.
	StreamIDs(page int) ([]int, error)

	// ReadStream returns the decoded bytes of one content stream.
	ReadStream(page, id int) ([]byte, error)

	// WriteStream replaces the content of one stream. The host re-encodes
	// on save.
	WriteStream(page, id int, data []byte) error

	// Images lists the embedded image descriptors for one page, in host order.
	Images(page int) ([]ImageDescriptor, error)

	// DeleteImage removes the image reference with the given identifier
	// from the page.
	DeleteImage(page int, id string) error

	// Save persists the document to path. Implementations must not leave
	// a partial file visible at path on failure.
	Save(path string, opts SaveOptions) error

	// Close releases the underlying document resources.
	Close() error
}

// Opener opens documents by path. It is the engine's entry point into the
// host library; Open fails with an error wrapping ErrInvalidDocument on
// unreadable or corrupt input.
type Opener interface {
	Open(path string) (Document, error)
}

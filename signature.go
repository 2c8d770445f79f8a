package watermark

import "github.com/jonatw/pdf-watermark-remove/logger"

// Signature is the geometric fingerprint of a known watermark image.
// Matching is exact on both dimensions; no tolerance is applied, so a
// legitimate image of a merely similar size never qualifies.
type Signature struct {
	Width  int `yaml:"width" validate:"min=1"`
	Height int `yaml:"height" validate:"min=1"`
}

// MatchImage returns the identifier of the first image whose dimensions
// exactly equal any configured signature. Images are visited in the
// order the host reports them, signatures in configured order. ok is
// false when nothing matches.
func MatchImage(images []ImageDescriptor, sigs []Signature) (id string, ok bool) {
	for _, img := range images {
		for _, sig := range sigs {
			if img.Width == sig.Width && img.Height == sig.Height {
				logger.Info("found watermark image",
					"id", img.ID, "width", img.Width, "height", img.Height)
				return img.ID, true
			}
		}
	}
	return "", false
}

package media

import (
	"fmt"
	"image"
	"io"

	// Registered decoders for the image formats the classifier treats as images.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ProbeDimensions reads just enough of an image stream to determine its pixel
// dimensions. It does not decode the full image. Callers are expected to
// tolerate failures: a file that cannot be probed still uploads fine, only
// without Width/Height set.
func ProbeDimensions(r io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

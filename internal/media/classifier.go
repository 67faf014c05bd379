package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/capview/internal/domain"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"go.uber.org/zap"
)

// headerSize is the number of leading bytes the filetype matchers inspect
const headerSize = 262

// imageTypes are the image formats the decoders in this package can open
var imageTypes = map[types.Type]bool{
	matchers.TypeJpeg: true,
	matchers.TypePng:  true,
	matchers.TypeGif:  true,
	matchers.TypeWebp: true,
	matchers.TypeBmp:  true,
}

// extensionKinds is consulted when the content signature is not recognized
var extensionKinds = map[string]domain.MediaKind{
	".jpg":  domain.KindImage,
	".jpeg": domain.KindImage,
	".png":  domain.KindImage,
	".gif":  domain.KindImage,
	".webp": domain.KindImage,
	".bmp":  domain.KindImage,
	".mp4":  domain.KindVideo,
	".m4v":  domain.KindVideo,
	".mkv":  domain.KindVideo,
	".webm": domain.KindVideo,
	".mov":  domain.KindVideo,
	".avi":  domain.KindVideo,
}

// Classifier detects media kinds from file signatures
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a signature-based classifier
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify reads the file header and reports its media kind.
// Content the decoders can't open is KindUnknown, never an error.
func (c *Classifier) Classify(path string) (domain.MediaKind, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.KindUnknown, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return domain.KindUnknown, fmt.Errorf("%w: failed to open media: %w", domain.ErrIO, err)
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return domain.KindUnknown, fmt.Errorf("%w: failed to read media header: %w", domain.ErrIO, err)
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err == nil && kind != filetype.Unknown {
		switch {
		case imageTypes[kind]:
			return domain.KindImage, nil
		case strings.HasPrefix(kind.MIME.Type, "video"):
			return domain.KindVideo, nil
		}
		c.logger.Debug("Unsupported media signature",
			zap.String("path", path),
			zap.String("mime", kind.MIME.Value))
		return domain.KindUnknown, nil
	}

	if mk, ok := extensionKinds[strings.ToLower(filepath.Ext(path))]; ok && n > 0 {
		return mk, nil
	}
	return domain.KindUnknown, nil
}

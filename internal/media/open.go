package media

import (
	"context"

	"github.com/genricoloni/capview/internal/domain"
	"github.com/genricoloni/capview/internal/resources"
	"go.uber.org/zap"
)

// Opener picks the frame source variant for a media file
type Opener struct {
	logger       *zap.Logger
	cfg          domain.Config
	classifier   domain.Classifier
	placeholders *resources.Placeholders
}

// NewOpener creates an opener that falls back to the blank placeholder for unrecognized media
func NewOpener(logger *zap.Logger, cfg domain.Config, classifier domain.Classifier, placeholders *resources.Placeholders) *Opener {
	return &Opener{
		logger:       logger,
		cfg:          cfg,
		classifier:   classifier,
		placeholders: placeholders,
	}
}

// Open returns a frame source for path
func (o *Opener) Open(ctx context.Context, path string) (domain.FrameSource, error) {
	kind, err := o.classifier.Classify(path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.KindImage:
		src, err := OpenImage(path)
		if err != nil {
			return nil, err
		}
		return src, nil
	case domain.KindVideo:
		src, err := OpenVideo(ctx, o.logger, o.cfg.GetFFmpegPath(), o.cfg.GetFFprobePath(), path)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		o.logger.Warn("Unrecognized media, showing placeholder", zap.String("path", path))
		src, err := OpenImage(o.placeholders.Blank)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

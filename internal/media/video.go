package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"time"

	"github.com/genricoloni/capview/internal/domain"
	"github.com/genricoloni/capview/internal/media/ffprobe"
	"go.uber.org/zap"
)

// decoder starts a raw rgb24 frame stream from the beginning of the video
type decoder interface {
	Start() (io.ReadCloser, error)
}

// VideoSource yields frames from a raw rgb24 stream decoded by ffmpeg.
// End of stream restarts the decoder at the first frame.
type VideoSource struct {
	logger   *zap.Logger
	dec      decoder
	stream   io.ReadCloser
	width    int
	height   int
	duration time.Duration
	timed    bool
	buf      []byte
}

// OpenVideo probes the video at path and starts decoding it
func OpenVideo(ctx context.Context, logger *zap.Logger, ffmpegPath, ffprobePath, path string) (*VideoSource, error) {
	probe, err := ffprobe.Inspect(ctx, ffprobePath, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	stream, ok := probe.VideoStream()
	if !ok || stream.Width <= 0 || stream.Height <= 0 {
		return nil, fmt.Errorf("%w: no video stream in %s", domain.ErrDecode, path)
	}

	dec := &ffmpegDecoder{ctx: ctx, binary: ffmpegPath, path: path}
	return newVideoSource(logger, dec, stream.Width, stream.Height, stream.FrameRate())
}

func newVideoSource(logger *zap.Logger, dec decoder, width, height int, fps float64) (*VideoSource, error) {
	s := &VideoSource{
		logger: logger,
		dec:    dec,
		width:  width,
		height: height,
		buf:    make([]byte, width*height*3),
	}
	if fps > 0 {
		s.duration = time.Duration(int(1000/fps)) * time.Millisecond
		s.timed = true
	}

	if err := s.restart(); err != nil {
		return nil, err
	}

	logger.Debug("Video decoder started",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float64("fps", fps))
	return s, nil
}

// NextFrame reads the next frame, rewinding once when the stream is exhausted
func (s *VideoSource) NextFrame() (*image.NRGBA, error) {
	if s.stream == nil {
		return nil, fmt.Errorf("%w: video source closed", domain.ErrDecode)
	}

	err := s.read()
	if isEndOfStream(err) {
		s.logger.Debug("Video stream exhausted, rewinding")
		if err := s.restart(); err != nil {
			return nil, err
		}
		err = s.read()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read video frame: %w", domain.ErrDecode, err)
	}

	return s.frame(), nil
}

// FrameDuration returns 1000/fps milliseconds, truncated
func (s *VideoSource) FrameDuration() (time.Duration, bool) {
	return s.duration, s.timed
}

// Close stops the decoder
func (s *VideoSource) Close() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

func (s *VideoSource) restart() error {
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.logger.Debug("Failed to stop previous decoder", zap.Error(err))
		}
		s.stream = nil
	}

	stream, err := s.dec.Start()
	if err != nil {
		return fmt.Errorf("%w: failed to start video decoder: %w", domain.ErrDecode, err)
	}
	s.stream = stream
	return nil
}

func (s *VideoSource) read() error {
	_, err := io.ReadFull(s.stream, s.buf)
	return err
}

// frame converts the rgb24 buffer into an opaque NRGBA image
func (s *VideoSource) frame() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	for i, j := 0, 0; i < len(s.buf); i, j = i+3, j+4 {
		img.Pix[j] = s.buf[i]
		img.Pix[j+1] = s.buf[i+1]
		img.Pix[j+2] = s.buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// ffmpegDecoder runs ffmpeg and exposes its stdout
type ffmpegDecoder struct {
	ctx    context.Context
	binary string
	path   string
}

func (d *ffmpegDecoder) Start() (io.ReadCloser, error) {
	binary := d.binary
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(d.ctx, binary, decodeArgs(d.path)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &processStream{ReadCloser: stdout, cmd: cmd}, nil
}

// decodeArgs streams raw rgb24 frames at the stored size. Rotation metadata is
// ignored so every frame matches the width and height ffprobe reports.
func decodeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-nostdin",
		"-noautorotate",
		"-i", path,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}
}

// processStream kills and reaps the decoder process on Close
type processStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *processStream) Close() error {
	_ = p.ReadCloser.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	// Wait reports the kill; the process is gone either way
	_ = p.cmd.Wait()
	return nil
}

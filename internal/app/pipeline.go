package app

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/ayusman/scrolly/internal/detector"
	"github.com/ayusman/scrolly/internal/overlay"
	"github.com/ayusman/scrolly/internal/raster"
)

// run is the frame loop. The overlay renderer is created and set up here so
// that every GL call happens on this goroutine.
func (a *App) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	surface := raster.NewSurface(1, 1)
	defer surface.Close()

	renderer := overlay.NewRenderer(surface, a.config.Style, a.logger)
	if err := renderer.Setup(); err != nil {
		a.logger.Error("overlay setup failed, previews will have no overlay", "error", err)
	}

	ticker := time.NewTicker(a.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			preview, err := a.step(surface, renderer)
			preview.Seq = a.record(preview, err)
			if err != nil {
				a.logger.Warn("frame skipped", "error", err)
				continue
			}
			if preview.JPEG != nil {
				a.publish(preview)
			}
		}
	}
}

// canvas is the drawing target of the frame loop.
type canvas interface {
	Load(img image.Image) error
	Err() error
	EncodeJPEG(w io.Writer, quality int) error
}

// step processes one camera frame: detect, evaluate signals, then draw the
// overlay over the frame and encode the preview. Only read and detection
// failures are returned; an overlay failure leaves the preview without a JPEG.
func (a *App) step(c canvas, renderer *overlay.Renderer) (Preview, error) {
	mat, err := a.config.Camera.Read()
	if err != nil {
		return Preview{}, fmt.Errorf("read frame: %w", err)
	}
	defer mat.Close()

	if a.config.Detector == nil {
		return Preview{}, fmt.Errorf("no detector configured")
	}
	hands, err := a.config.Detector.Detect(mat)
	if err != nil {
		return Preview{}, fmt.Errorf("detect: %w", err)
	}

	preview := Preview{
		At:       time.Now(),
		Hands:    hands.NumHands(),
		Triggers: a.evaluator.Process(hands),
	}

	img, err := mat.ToImage()
	if err != nil {
		a.logger.Warn("preview skipped", "error", fmt.Errorf("convert frame: %w", err))
		return preview, nil
	}
	jpeg, err := a.render(c, renderer, img, hands)
	if err != nil {
		a.logger.Warn("preview skipped", "error", err)
		return preview, nil
	}
	preview.JPEG = jpeg
	return preview, nil
}

func (a *App) render(c canvas, renderer *overlay.Renderer, img image.Image, hands detector.Frame) ([]byte, error) {
	if err := c.Load(img); err != nil {
		return nil, fmt.Errorf("load frame: %w", err)
	}
	renderer.Render(hands, raster.OrthoProjection())
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("draw overlay: %w", err)
	}

	var buf bytes.Buffer
	if err := c.EncodeJPEG(&buf, a.config.JPEGQuality); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// record updates the counters and returns the frame's sequence number.
func (a *App) record(p Preview, err error) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Frames++
	if err != nil {
		a.stats.Failed++
		return a.stats.Frames
	}
	if p.JPEG == nil {
		a.stats.NoPreview++
	}
	a.stats.Triggers += uint64(len(p.Triggers))
	if p.Hands > 0 {
		a.stats.LastHand = p.At
	}
	return a.stats.Frames
}

package exporter

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	apperrors "bizdash/internal/errors"
)

// Rasterizer turns an SVG document into PNG bytes.
type Rasterizer interface {
	RenderPNG(ctx context.Context, svg []byte, width, height int) ([]byte, error)
}

// PNGOptions configures the headless browser used for rasterizing.
type PNGOptions struct {
	// RemoteURL attaches to a running browser's DevTools websocket instead of
	// starting a local one.
	RemoteURL string
	// ExecPath overrides browser discovery.
	ExecPath string
	Timeout  time.Duration
}

// PNGRenderer screenshots SVG charts in headless Chrome. One browser is
// started lazily and shared; each render gets its own tab.
type PNGRenderer struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	timeout     time.Duration
	logger      *slog.Logger

	startOnce sync.Once
	startErr  error
}

// NewPNGRenderer prepares a browser allocator. The browser itself starts on
// the first render.
func NewPNGRenderer(opts PNGOptions, logger *slog.Logger) *PNGRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("hide-scrollbars", true),
			chromedp.DisableGPU,
		)
		if opts.ExecPath != "" {
			execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.Background(), execOpts...)
	}

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	return &PNGRenderer{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancel:      cancel,
		timeout:     opts.Timeout,
		logger:      logger.With(slog.String("component", "png_renderer")),
	}
}

// RenderPNG loads the SVG as a data URL in a viewport of the chart's size and
// captures a screenshot.
func (r *PNGRenderer) RenderPNG(ctx context.Context, svg []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewExportError(fmt.Sprintf("invalid image size %dx%d", width, height), nil)
	}

	r.startOnce.Do(func() {
		// Running with no actions starts the browser so later tabs share it.
		r.startErr = chromedp.Run(r.browserCtx)
	})
	if r.startErr != nil {
		return nil, apperrors.NewExportError("start headless browser", r.startErr)
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	// Propagate the caller's cancellation into the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	url := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
	var buf []byte
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(url),
		chromedp.CaptureScreenshot(&buf),
	); err != nil {
		return nil, apperrors.NewExportError("render chart png", err)
	}

	r.logger.DebugContext(ctx, "rendered chart png",
		slog.Int("bytes", len(buf)),
		slog.Duration("duration", time.Since(start)))
	return buf, nil
}

// Close shuts the browser down.
func (r *PNGRenderer) Close() error {
	r.cancel()
	r.cancelAlloc()
	return nil
}

// FindBrowser returns the path of a local Chrome or Chromium binary, or "".
func FindBrowser() string {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// Live preview: shows a capture device through a frame transform session,
// with a selector to switch the processing mode while frames are flowing.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"frame-transform/internal/config"
	"frame-transform/internal/core"
	"frame-transform/internal/engine"
	"frame-transform/internal/preview"
	"frame-transform/internal/session"
)

const (
	AppName    = "Frame Transform Preview"
	AppID      = "com.frametransform.preview"
	AppVersion = "1.0.0"
)

func main() {
	cfg, _, err := config.FromArgs("preview", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := config.NewLogger(cfg)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
		"device":     cfg.Device,
	}).Info("Starting preview")

	webcam, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		logger.WithError(err).Error("Failed to open capture device")
		os.Exit(1)
	}
	defer webcam.Close()

	registry := session.NewRegistry(logger)
	defer registry.Close()
	handle := registry.CreateSession(engine.WithMode(cfg.ProcessingMode()))

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(theme.DefaultTheme())
	window := myApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(960, 720))

	frameView := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 640, 480)))
	frameView.FillMode = canvas.ImageFillContain
	status := widget.NewLabel("Waiting for frames")

	names := make([]string, 0, len(core.Modes()))
	for _, mode := range core.Modes() {
		names = append(names, mode.String())
	}
	selector := widget.NewSelect(names, func(name string) {
		mode, err := core.ParseMode(name)
		if err != nil {
			logger.WithError(err).Warn("Unknown mode selected")
			return
		}
		if err := registry.SetMode(handle, int(mode)); err != nil {
			logger.WithError(err).Warn("Failed to change mode")
		}
	})
	selector.SetSelected(cfg.ProcessingMode().String())

	toolbar := container.NewHBox(widget.NewLabel("Mode"), selector)
	window.SetContent(container.NewBorder(toolbar, status, nil, nil, frameView))

	ctx, cancel := context.WithCancel(context.Background())
	window.SetOnClosed(cancel)

	loop := preview.NewLoop(registry, handle, webcam, logger, cfg.StatsInterval)
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := loop.Run(ctx, func(frame image.Image, stats session.Stats) {
			fyne.Do(func() {
				frameView.Image = frame
				frameView.Refresh()
				status.SetText(fmt.Sprintf("%s  %.1f fps  %d frames  %d dropped",
					stats.Mode, stats.FPS, stats.FramesProcessed, stats.FramesDropped))
			})
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("Capture loop stopped")
		}
	}()

	window.ShowAndRun()
	cancel()
	<-done

	logger.Info("Preview shutting down gracefully")
}

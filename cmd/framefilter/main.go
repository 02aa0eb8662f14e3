// Frame filter CLI: runs still images through a host session, one frame per
// input file, so the per-frame transform can be checked without a camera.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"frame-transform/internal/config"
	"frame-transform/internal/core"
	"frame-transform/internal/io"
	"frame-transform/internal/marshal"
	"frame-transform/internal/session"
)

const AppVersion = "1.0.0"

func main() {
	cfg, args, err := config.FromArgs("framefilter", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: framefilter [flags] <input> <output>")
		fmt.Fprintln(os.Stderr, "  an output containing {mode} is written once per mode")
		os.Exit(2)
	}

	logger := config.NewLogger(cfg)
	logger.WithFields(logrus.Fields{
		"version": AppVersion,
		"mode":    cfg.Mode,
		"input":   args[0],
	}).Info("Starting frame filter")

	if err := run(logger, cfg, args[0], args[1]); err != nil {
		logger.WithError(err).Error("Frame filter failed")
		os.Exit(1)
	}
}

func run(logger *logrus.Logger, cfg config.Config, input, output string) error {
	loader := io.NewImageLoader(logger)
	frame, err := loader.LoadFrame(input)
	if err != nil {
		return err
	}

	pixels, err := marshal.Unwrap(frame)
	if err != nil {
		return err
	}

	registry := session.NewRegistry(logger)
	defer registry.Close()
	handle := registry.CreateSession()

	modes := []core.Mode{cfg.ProcessingMode()}
	if strings.Contains(output, "{mode}") {
		modes = core.Modes()
	}

	for _, mode := range modes {
		if err := registry.SetMode(handle, int(mode)); err != nil {
			return err
		}

		result, err := registry.ProcessFrame(handle, pixels, frame.Width, frame.Height)
		if err != nil {
			return fmt.Errorf("mode %s: %w", mode, err)
		}

		view := marshal.Wrap(marshal.SliceBuffer(result), frame.Width, frame.Height)
		err = loader.SaveFrame(view.Image, strings.ReplaceAll(output, "{mode}", mode.String()))
		view.Release()
		if err != nil {
			return err
		}
	}

	stats, err := registry.Stats(handle)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"frames_processed": stats.FramesProcessed,
		"frames_dropped":   stats.FramesDropped,
		"last_frame_ms":    stats.LastFrameDuration.Milliseconds(),
	}).Info("Frame filter finished")

	return nil
}

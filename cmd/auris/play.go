package main

import (
	"github.com/sirupsen/logrus"

	"github.com/pipelined/auris"
	"github.com/pipelined/auris/portaudio"
)

// play sends a file to the default output device.
func play(cfg *config, logger *logrus.Logger, path string) error {
	src, release, err := openSource(cfg, path)
	if err != nil {
		return err
	}
	stream := auris.NewPipedReader(src, pipeOptions(cfg, logger)...)
	sink := portaudio.NewSink(cfg.chunkFrames)

	logger.WithField("file", path).Info("playing")
	err = sink.Play(stream)
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	if rerr := release(); err == nil {
		err = rerr
	}
	return err
}

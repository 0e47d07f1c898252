package main

import (
	"github.com/sirupsen/logrus"

	"github.com/pipelined/auris"
	"github.com/pipelined/auris/sox"
	"github.com/pipelined/auris/wav"
)

// decode writes a file into a wave file, optionally resampling it on
// the way. The stages own their upstreams, closing the head of the
// chain releases every stage below it.
func decode(cfg *config, logger *logrus.Logger, in, out string) error {
	sink, err := wav.NewSink(out, auris.BitDepth(cfg.bitDepth))
	if err != nil {
		return err
	}

	src, release, err := openSource(cfg, in)
	if err != nil {
		return err
	}

	stream := auris.Source(src)
	modules := []func() error{release}
	closeChain := func(err error) error {
		if cerr := stream.Close(); err == nil {
			err = cerr
		}
		for i := len(modules) - 1; i >= 0; i-- {
			if cerr := modules[i](); err == nil {
				err = cerr
			}
		}
		return err
	}

	if cfg.rate > 0 && cfg.rate != stream.SampleFormat().SampleRate {
		m, err := sox.Open(cfg.soxLib)
		if err != nil {
			return closeChain(err)
		}
		modules = append(modules, m.Close)
		engine, err := sox.NewResampler(m, stream.SampleFormat(), cfg.rate, sox.WithQuality(sox.QualityVeryHigh))
		if err != nil {
			return closeChain(err)
		}
		stream = sox.NewProcessor(stream, engine)
	}
	stream = auris.NewPipedReader(stream, pipeOptions(cfg, logger)...)

	logger.WithFields(logrus.Fields{
		"in":  in,
		"out": out,
	}).Info("decoding")
	return closeChain(sink.Encode(stream))
}

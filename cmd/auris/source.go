package main

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pipelined/auris"
	"github.com/pipelined/auris/mp3"
	"github.com/pipelined/auris/vorbis"
	"github.com/pipelined/auris/wav"
	"github.com/pipelined/auris/wavpack"
)

// openSource opens path with the decoder matching its extension. The
// returned release frees what the source does not own itself, call it
// after the source is closed.
func openSource(cfg *config, path string) (auris.Source, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wv":
		m, err := wavpack.Open(cfg.wavpackLib)
		if err != nil {
			return nil, nil, err
		}
		src, err := wavpack.NewSource(m, path)
		if err != nil {
			m.Close()
			return nil, nil, err
		}
		return src, m.Close, nil
	case ".wav", ".wave":
		src, err := wav.NewSource(path)
		if err != nil {
			return nil, nil, err
		}
		return src, noop, nil
	case ".mp3":
		src, err := mp3.NewSource(path)
		if err != nil {
			return nil, nil, err
		}
		return src, noop, nil
	case ".ogg", ".oga":
		src, err := vorbis.NewSource(path)
		if err != nil {
			return nil, nil, err
		}
		return src, noop, nil
	}
	return nil, nil, errors.Errorf("unsupported file type %q", filepath.Ext(path))
}

func pipeOptions(cfg *config, logger *logrus.Logger) []auris.Option {
	options := []auris.Option{auris.WithLogger(logger)}
	if cfg.chunkFrames > 0 {
		options = append(options, auris.WithChunkFrames(cfg.chunkFrames))
	}
	return options
}

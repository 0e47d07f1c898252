package main

import (
	"github.com/integrii/flaggy"
	"github.com/sirupsen/logrus"

	"github.com/pipelined/auris/log"
)

// AppName is the app name
const AppName = "auris"

// AppDesc is the app description
const AppDesc = "inspect, decode, resample and play audio files"

var version = "unknown"

// Default shared library names, override with the global flags when
// the host names them differently.
const (
	defaultWavpackLib = "libwavpack.so"
	defaultSoxLib     = "libsoxrate.so"
)

type config struct {
	wavpackLib  string
	soxLib      string
	rate        int
	bitDepth    int
	chunkFrames int
}

func main() {
	logger := log.GetLogger()

	cfg := config{
		wavpackLib: defaultWavpackLib,
		soxLib:     defaultSoxLib,
		bitDepth:   16,
	}

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.Version = version

	infoCmd := flaggy.Subcommand{
		Name:        "info",
		Description: "print the stream format, length and tags of a file",
	}
	var infoPath string
	infoCmd.AddPositionalValue(&infoPath, "file", 1, true, "file to inspect")
	parser.AttachSubcommand(&infoCmd, 1)

	decodeCmd := flaggy.Subcommand{
		Name:        "decode",
		Description: "decode a file into a wave file",
	}
	var decodeIn, decodeOut string
	decodeCmd.AddPositionalValue(&decodeIn, "in", 1, true, "file to decode")
	decodeCmd.AddPositionalValue(&decodeOut, "out", 2, true, "wave file to write")
	decodeCmd.Int(&cfg.rate, "r", "rate", "resample to this rate (0 keeps the source rate)")
	decodeCmd.Int(&cfg.bitDepth, "b", "bits", "output bit depth (16, 24 or 32)")
	parser.AttachSubcommand(&decodeCmd, 1)

	playCmd := flaggy.Subcommand{
		Name:        "play",
		Description: "play a file through the default output device",
	}
	var playPath string
	playCmd.AddPositionalValue(&playPath, "file", 1, true, "file to play")
	parser.AttachSubcommand(&playCmd, 1)

	parser.String(&cfg.wavpackLib, "w", "wavpack", "wavpack shared library to load")
	parser.String(&cfg.soxLib, "s", "sox", "sox resampling shared library to load")
	parser.Int(&cfg.chunkFrames, "n", "chunk", "pipe chunk size in frames")

	chk(logger, parser.Parse(), "parse arguments")

	switch {
	case infoCmd.Used:
		chk(logger, info(&cfg, infoPath), "inspect file")
	case decodeCmd.Used:
		chk(logger, decode(&cfg, logger, decodeIn, decodeOut), "decode file")
	case playCmd.Used:
		chk(logger, play(&cfg, logger, playPath), "play file")
	default:
		parser.ShowHelpAndExit("")
	}
}

func chk(logger *logrus.Logger, err error, action string) {
	if err != nil {
		logger.WithError(err).Fatal(action)
	}
}

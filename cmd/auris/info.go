package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pipelined/auris"
	"github.com/pipelined/auris/wavpack"
)

// info prints the stream properties of a file. For wavpack files it
// also reports the library version, the tags and the cuesheet.
func info(cfg *config, path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".wv" {
		return wavpackInfo(cfg, path)
	}
	src, release, err := openSource(cfg, path)
	if err != nil {
		return err
	}
	printFormat(src)
	err = src.Close()
	if rerr := release(); err == nil {
		err = rerr
	}
	return err
}

func wavpackInfo(cfg *config, path string) error {
	m, err := wavpack.Open(cfg.wavpackLib)
	if err != nil {
		return err
	}
	src, err := wavpack.NewSource(m, path)
	if err != nil {
		m.Close()
		return err
	}
	fmt.Printf("library: WavPack %s\n", m.Version())
	printFormat(src)
	printTags(src)
	err = src.Close()
	if cerr := m.Close(); err == nil {
		err = cerr
	}
	return err
}

func printFormat(src auris.Source) {
	format := src.SampleFormat()
	kind := "int"
	if format.Float {
		kind = "float"
	}
	fmt.Printf("format: %d Hz, %d channel(s), %d-bit %s in %d-bit container\n",
		format.SampleRate, format.NumChannels, format.BitDepth, kind, format.Container)
	if length := src.Length(); length != auris.LengthUnknown {
		seconds := float64(length) / float64(format.SampleRate)
		fmt.Printf("length: %d frames (%.1f s)\n", length, seconds)
	} else {
		fmt.Println("length: unknown")
	}
}

func printTags(src *wavpack.Source) {
	tags := src.Tags()
	if len(tags) > 0 {
		keys := make([]string, 0, len(tags))
		for key := range tags {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Println("tags:")
		for _, key := range keys {
			fmt.Printf("  %s: %s\n", key, tags[key])
		}
	}
	if cue := src.Cuesheet(); cue != "" {
		fmt.Printf("cuesheet:\n%s\n", cue)
	}
}

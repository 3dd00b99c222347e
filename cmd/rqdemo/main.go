// Command rqdemo drives a synthetic multi-threaded frame through a render
// queue and reports what the recorded command streams would submit.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/renderqueue"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML scene file")
		objects    = flag.Int("objects", 0, "opaque and glass objects per frame")
		materials  = flag.Int("materials", 0, "number of materials")
		producers  = flag.Int("producers", 0, "producer goroutines")
		workers    = flag.Int("workers", 0, "dispatch partitions per queue")
		frames     = flag.Int("frames", 0, "frames to run")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Explicit flags override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "objects":
			cfg.Objects = *objects
		case "materials":
			cfg.Materials = *materials
		case "producers":
			cfg.Producers = *producers
		case "workers":
			cfg.Workers = *workers
		case "frames":
			cfg.Frames = *frames
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	renderqueue.SetLogger(logger)

	d, err := newDemo(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up demo: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	for frame := range cfg.Frames {
		start := time.Now()
		fs, err := d.Frame(ctx)
		if err != nil {
			log.Fatalf("Frame %d failed: %v", frame, err)
		}
		logger.Info("frame",
			"n", frame,
			"elapsed", time.Since(start),
			"entries", fs.Entries,
			"blobs", fs.Blobs,
			"arena", fs.ArenaBytes,
			"binds", fs.Binds,
			"draws", fs.Draws,
			"instances", fs.Instances,
			"instancesPerDraw", fs.InstancesPerDraw(),
		)
	}
}

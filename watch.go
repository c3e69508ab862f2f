package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"lectern/clipboard"
	"lectern/log"
	"lectern/pipeline"
	"lectern/shutdown"
)

// settleDelay gives the producer time to finish writing a file after the
// create event fires.
const settleDelay = 500 * time.Millisecond

func runWatch(app *App, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	fmt.Printf("Watching %s for new WAV files (ctrl+c to stop)\n", dir)
	log.Infof("watching %s", dir)

	sig := shutdown.Listen()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".wav") {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue // hidden files
			}
			time.Sleep(settleDelay)
			processWatched(app, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watcher error: %v", err)

		case <-sig:
			fmt.Println("\nStopping watcher")
			return nil
		}
	}
}

func processWatched(app *App, path string) {
	fmt.Printf("Processing %s\n", filepath.Base(path))
	result, err := app.pipe.RunFile(context.Background(), path)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoTranscript) {
			fmt.Println("  transcription failed, skipping")
		} else {
			fmt.Printf("  error: %v\n", err)
		}
		return
	}
	fmt.Printf("  summary saved to %s\n", app.cfg.Notes.File)

	if app.copyToClipboard {
		if err := clipboard.Copy(result.Summary.Text); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
		}
	}
}

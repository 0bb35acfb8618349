package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dsmolkin/mediakeeper/internal/logging"
	"github.com/dsmolkin/mediakeeper/internal/media"
	"github.com/dsmolkin/mediakeeper/internal/uploader"
)

const progressInterval = 250 * time.Millisecond

// App runs one upload session.
type App struct {
	config *Config
	logger logging.Logger
	out    io.Writer
	errOut io.Writer
}

// NewApp constructs the upload command. Results go to out, progress and
// diagnostics to errOut.
func NewApp(c *Config, out, errOut io.Writer) *App {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(errOut, nil)))
	return &App{config: c, logger: logger, out: out, errOut: errOut}
}

func successStatus(s string) (media.Status, error) {
	switch strings.ToLower(s) {
	case "", "temp":
		return media.StatusTemp, nil
	case "active":
		return media.StatusActive, nil
	default:
		return "", fmt.Errorf("unknown status %q, want temp or active", s)
	}
}

// Run uploads the given files and prints the resulting values object
// as JSON.
func (app *App) Run(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errors.New("no files given")
	}

	status, err := successStatus(app.config.Status)
	if err != nil {
		return err
	}

	token := app.config.Token
	if token == "" {
		token, err = GetToken(app.errOut)
		if err != nil {
			return err
		}
	}

	files := make([]uploader.FileSource, 0, len(paths))
	for _, path := range paths {
		f, err := uploader.NewLocalFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	u, err := uploader.New(uploader.Config{
		ServerURL:     app.config.ServerURL,
		Headers:       map[string]string{"Authorization": "Bearer " + token},
		SuccessStatus: status,
		ManualUpload:  app.config.Manual,
		MaxConcurrent: app.config.MaxConcurrent,
		Logger:        app.logger,
		OnFailure: func(res *uploader.TransferResult) {
			fmt.Fprintf(app.errOut, "transfer failed: %s\n", res.Status)
		},
	})
	if err != nil {
		return err
	}

	stopProgress := app.startProgressPrinter(u)
	defer stopProgress()

	if err := u.Add(ctx, app.config.Field, app.config.Multiple, files...); err != nil {
		return err
	}

	if app.config.Manual {
		if _, err := u.UploadManually(ctx); err != nil {
			return err
		}
	}

	stopProgress()
	app.printSummary(u)

	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	return enc.Encode(u.Values())
}

// startProgressPrinter periodically writes in-flight transfer progress
// to errOut until the returned stop function is called.
func (app *App) startProgressPrinter(u *uploader.Uploader) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				for id, p := range u.Progress() {
					fmt.Fprintf(app.errOut, "%s: %d/%d bytes (%.0f%%)\n", shortID(id), p.Loaded, p.Total, p.Percentage)
				}
			}
		}
	}()

	var once bool
	return func() {
		if once {
			return
		}
		once = true
		close(done)
		<-stopped
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (app *App) printSummary(u *uploader.Uploader) {
	items := u.Items()

	names := make([]string, 0, len(items))
	byName := make(map[string]uploader.Item, len(items))
	for _, item := range items {
		names = append(names, item.File.Name())
		byName[item.File.Name()] = item
	}
	sort.Strings(names)

	for _, name := range names {
		item := byName[name]
		line := fmt.Sprintf("%s: %s", name, item.State)
		if item.Media.ID != "" {
			line += " (id " + item.Media.ID + ")"
		}
		fmt.Fprintln(app.errOut, line)
	}
}

// Main is the entry point shared by cmd/upload.
func Main() int {
	cfg, paths, err := LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	app := NewApp(cfg, os.Stdout, os.Stderr)
	if err := app.Run(context.Background(), paths); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"form95/config"
	"form95/internal/fieldmap"
	"form95/internal/logger"
)

const (
	DefaultTimeout = 30 * time.Second
	stderrLimit    = 4096
)

type Filler interface {
	Fill(ctx context.Context, fm fieldmap.FieldMap, templatePath, outputPath string) (string, error)
	Ready() error
}

type Options struct {
	ToolPath   string
	Subcommand []string
	Mode       string
	TempDir    string
	Timeout    time.Duration
}

// PDFFiller drives a pdfcpu-compatible form filler as a subprocess:
//
//	<tool> <subcommand...> --mode <mode> <template> <interchange.json> <output>
type PDFFiller struct {
	opts Options
	log  logger.Logger
}

func New(opts Options) *PDFFiller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &PDFFiller{
		opts: opts,
		log:  logger.New("document").File("filler"),
	}
}

func NewFromConfig(config config.Config) *PDFFiller {
	return New(Options{
		ToolPath:   config.DocumentToolPath,
		Subcommand: config.DocumentToolArguments(),
		Mode:       config.DocumentMode,
		TempDir:    config.DocumentTempDir,
		Timeout:    config.DocumentTimeout,
	})
}

// Ready reports whether the fill tool can be found.
func (f *PDFFiller) Ready() error {
	if _, err := exec.LookPath(f.opts.ToolPath); err != nil {
		return f.log.Function("Ready").Err("document fill tool not found", err, "tool", f.opts.ToolPath)
	}
	return nil
}

// Fill writes fm as an interchange file, runs the tool and returns
// outputPath. An existing output file is overwritten. The interchange
// file is removed on every path.
func (f *PDFFiller) Fill(ctx context.Context, fm fieldmap.FieldMap, templatePath, outputPath string) (string, error) {
	log := f.log.Function("Fill")

	if _, err := os.Stat(templatePath); err != nil {
		log.Er("template not readable", err, "template", templatePath)
		return "", &FillError{Err: errors.Join(ErrTemplateMissing, err)}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", &FillError{Err: log.Err("failed to create output directory", err, "output", outputPath)}
	}

	interchangePath, err := f.writeInterchange(fm)
	if err != nil {
		return "", &FillError{Err: log.Err("failed to write interchange file", err)}
	}
	defer func() {
		if err := os.Remove(interchangePath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove interchange file", "path", interchangePath, "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	args := append([]string{}, f.opts.Subcommand...)
	if f.opts.Mode != "" {
		args = append(args, "--mode", f.opts.Mode)
	}
	args = append(args, templatePath, interchangePath, outputPath)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.opts.ToolPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	started := time.Now()
	err = cmd.Run()
	if err != nil {
		fillErr := &FillError{Stderr: truncate(stderr.String()), Err: err}

		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			fillErr.Timeout = true
		case errors.As(err, &exitErr):
			fillErr.ExitCode = exitErr.ExitCode()
		}

		log.Er("document fill failed", fillErr,
			"output", outputPath,
			"exitCode", fillErr.ExitCode,
			"timeout", fillErr.Timeout,
			"elapsed", time.Since(started))
		return "", fillErr
	}

	log.Info("document filled", "output", outputPath, "fields", fm.Len(), "elapsed", time.Since(started))
	return outputPath, nil
}

func (f *PDFFiller) writeInterchange(fm fieldmap.FieldMap) (string, error) {
	file, err := os.CreateTemp(f.opts.TempDir, "fill-*.json")
	if err != nil {
		return "", err
	}

	encodeErr := json.NewEncoder(file).Encode(NewInterchange(fm))
	closeErr := file.Close()
	if err := errors.Join(encodeErr, closeErr); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}

	return file.Name(), nil
}

func truncate(s string) string {
	if len(s) <= stderrLimit {
		return s
	}
	return s[:stderrLimit]
}

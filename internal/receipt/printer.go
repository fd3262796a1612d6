package receipt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Printer sends a rendered document to paper.
type Printer interface {
	Print(ctx context.Context, doc string) error
}

// WriterPrinter writes documents to W, one after another.
type WriterPrinter struct {
	mu sync.Mutex
	W  io.Writer
}

func (p *WriterPrinter) Print(ctx context.Context, doc string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.W, doc+"\n\n\n"); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return nil
}

// DevicePrinter opens Path for every document, so a printer that was
// unplugged between sales is picked up again.
type DevicePrinter struct {
	mu   sync.Mutex
	Path string
}

func (p *DevicePrinter) Print(ctx context.Context, doc string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := os.OpenFile(p.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open printer %s: %w", p.Path, err)
	}
	if _, err := io.WriteString(f, doc+"\n\n\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("print to %s: %w", p.Path, err)
	}
	return f.Close()
}

// LogPrinter logs documents instead of printing them.
type LogPrinter struct {
	Logger *slog.Logger
}

func (p LogPrinter) Print(_ context.Context, doc string) error {
	p.Logger.Info("print", "lines", strings.Count(doc, "\n"), "document", doc)
	return nil
}

// NewPrinter returns a DevicePrinter for device, or a LogPrinter when device
// is empty.
func NewPrinter(device string, logger *slog.Logger) Printer {
	if device == "" {
		return LogPrinter{Logger: logger}
	}
	return &DevicePrinter{Path: device}
}

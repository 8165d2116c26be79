package actions

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// OutputWriter writes step outputs and job summaries
type OutputWriter interface {
	// WriteOutput records a step output (e.g. into $GITHUB_OUTPUT)
	WriteOutput(key, value string) error

	// WriteSummary appends Markdown to the job summary (e.g. $GITHUB_STEP_SUMMARY)
	WriteSummary(content string) error
}

// NewOutputWriterFromEnv returns a FileOutputWriter when running inside a
// workflow, and a LogOutputWriter otherwise
func NewOutputWriterFromEnv() OutputWriter {
	outputPath := os.Getenv("GITHUB_OUTPUT")
	if outputPath == "" {
		return &LogOutputWriter{}
	}
	return NewFileOutputWriter(outputPath, os.Getenv("GITHUB_STEP_SUMMARY"))
}

// LogOutputWriter logs outputs instead of recording them.
// Used for local runs where $GITHUB_OUTPUT is not available.
type LogOutputWriter struct{}

// WriteOutput implements OutputWriter
func (w *LogOutputWriter) WriteOutput(key, value string) error {
	slog.Info("Output", "name", key, "value", value)
	return nil
}

// WriteSummary implements OutputWriter
func (w *LogOutputWriter) WriteSummary(content string) error {
	slog.Debug("Job summary", "content", content)
	return nil
}

// FileOutputWriter writes outputs to the files GitHub Actions provides
type FileOutputWriter struct {
	outputPath  string
	summaryPath string
}

// NewFileOutputWriter creates a new FileOutputWriter
func NewFileOutputWriter(outputPath, summaryPath string) *FileOutputWriter {
	return &FileOutputWriter{
		outputPath:  outputPath,
		summaryPath: summaryPath,
	}
}

// WriteOutput appends a key-value pair to the output file.
// Format: key=value (single line) or key<<EOF\nvalue\nEOF (multiline).
func (w *FileOutputWriter) WriteOutput(key, value string) error {
	if w.outputPath == "" {
		return nil
	}

	f, err := os.OpenFile(w.outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	if strings.ContainsAny(value, "\r\n") {
		delimiter := "EOF"
		for strings.Contains(value, delimiter) {
			delimiter += "_"
		}
		_, err = fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter)
	} else {
		_, err = fmt.Fprintf(f, "%s=%s\n", key, value)
	}
	if err != nil {
		return fmt.Errorf("failed to write output %s: %w", key, err)
	}

	return nil
}

// WriteSummary appends content to the job summary file
func (w *FileOutputWriter) WriteSummary(content string) error {
	if w.summaryPath == "" {
		return nil
	}

	f, err := os.OpenFile(w.summaryPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open summary file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-sniper/src/app"
	"screen-sniper/src/barcode"
	"screen-sniper/src/config"
	"screen-sniper/src/logutil"
	"screen-sniper/src/ocr"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath    string
	code        bool
	stripBreaks bool
	jsonOutput  bool
	verbose     bool
	apiKeyPath  string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args), os.Stdin, os.Stdout)
}

func runWithArgs(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		args = []string{"sniper-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, stdin, stdout)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, stdin io.Reader, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sniper-cli",
		Short:         "Recognize text or a QR/bar code in a PNG",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, stdin, stdout)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.code, "code", false, "Decode a QR/bar code instead of running OCR")
	cmd.Flags().BoolVar(&opts.stripBreaks, "strip-line-breaks", false, "Join recognized lines with spaces")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func verbosef(on bool, format string, args ...any) {
	if on {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

func runWithOptions(opts cliOptions, stdin io.Reader, stdout io.Writer) error {
	// Configure logging BEFORE any other operations.
	if opts.verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
	verbosef(opts.verbose, "Starting sniper-cli")

	data, err := readInput(opts.filePath, stdin)
	if err != nil {
		return err
	}
	verbosef(opts.verbose, "Read %d bytes", len(data))
	if err := validatePNG(data); err != nil {
		return err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode PNG: %w", err)
	}

	start := time.Now()
	kind := "text"
	var text string
	if opts.code {
		kind = "code"
		text, err = barcode.Read(img)
		if err != nil {
			return fmt.Errorf("code not recognized: %w", err)
		}
	} else {
		text, err = recognize(opts, img)
		if err != nil {
			return err
		}
		text = app.ProcessText(text, !opts.stripBreaks)
	}
	elapsed := time.Since(start)
	verbosef(opts.verbose, "Finished in %v, %d characters", elapsed, len(text))

	return outputResult(stdout, OCRResult{
		Kind:      kind,
		Text:      text,
		Source:    opts.filePath,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: len(text),
	}, opts.jsonOutput)
}

func recognize(opts cliOptions, img image.Image) (string, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath})
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	verbosef(opts.verbose, "Config loaded: provider=%s model=%s key=%s", cfg.OCRProvider, cfg.Model, logutil.RedactKey(cfg.APIKey))
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	rec, err := ocr.New(cfg.OCRSettings())
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.OCRDeadlineSec)*time.Second)
	defer cancel()
	text, err := ocr.RecognizeImage(ctx, rec, img, cfg.OCRMaxSide)
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "code", "strip-line-breaks", "json", "verbose", "api-key-path"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}

func readInput(filePath string, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

func validatePNG(data []byte) error {
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

type OCRResult struct {
	Kind      string  `json:"kind"`
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(w io.Writer, result OCRResult, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, result.Text)
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	watermark "github.com/inkedtools/inked"
	"github.com/inkedtools/inked/internal/config"
	"github.com/inkedtools/inked/internal/logging"
)

// go run . input.png output.png logo.png --position center
// go run . input.webp output.png "Sample Watermark" --watermark_type text --font_size 30 --opacity 128
// go run . input.jpg - logo.png   (base64 PNG on stdout)

// Exit codes per failure kind.
const (
	exitOK              = 0
	exitFailure         = 1
	exitInvalidArgument = 2
	exitNotFound        = 3
	exitIO              = 4
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type report struct {
	Input        string `json:"input"`
	Output       string `json:"output"`
	Type         string `json:"watermark_type"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FontFallback bool   `json:"font_fallback"`
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := config.NewFlagSet("add-watermark")
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(fs, stderr) }

	cfg, rest, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitCode(err)
	}

	if len(rest) != 3 {
		fmt.Fprintf(stderr, "expected 3 arguments, got %d\n", len(rest))
		fs.Usage()
		return exitInvalidArgument
	}
	input, output, data := rest[0], rest[1], rest[2]

	logger, closer := logging.New(cfg.Log, stderr)
	defer closer.Close()
	defer logger.Sync()

	position, err := watermark.ParsePosition(cfg.Position)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitCode(err)
	}

	mark, err := newMark(cfg, data)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitCode(err)
	}

	engine := watermark.NewEngine(append(cfg.EngineOptions(), watermark.WithLogger(logger))...)
	opacity := uint8(cfg.Opacity)

	var info watermark.Info
	if output == "-" {
		info, err = writeBase64(engine, cfg, input, stdout, mark, position, opacity)
	} else {
		info, err = engine.Apply(input, output, mark, position, opacity)
	}
	if err != nil {
		logger.Debug("watermark failed", zap.Error(err))
		fmt.Fprintf(stderr, "%s: %v\n", watermark.KindOf(err), err)
		return exitCode(err)
	}

	if cfg.JSON {
		out, err := json.Marshal(report{
			Input:        input,
			Output:       output,
			Type:         cfg.WatermarkType,
			X:            info.Position.Min.X,
			Y:            info.Position.Min.Y,
			Width:        info.Size.X,
			Height:       info.Size.Y,
			FontFallback: info.FontFallback,
		})
		if err != nil {
			fmt.Fprintf(stderr, "encode report: %v\n", err)
			return exitFailure
		}
		// Keep stdout clean for the base64 payload.
		w := stdout
		if output == "-" {
			w = stderr
		}
		fmt.Fprintln(w, string(out))
		return exitOK
	}

	if output != "-" {
		fmt.Fprintf(stdout, "Watermarked image saved to %s\n", output)
	}
	return exitOK
}

func newMark(cfg *config.Config, data string) (watermark.Mark, error) {
	switch cfg.WatermarkType {
	case "text":
		return watermark.TextMark{Text: data, Size: float64(cfg.FontSize)}, nil
	case "image":
		if watermark.IsDataURL(data) {
			raw, err := watermark.DecodeBase64(data)
			if err != nil {
				return nil, &watermark.Error{Kind: watermark.KindInvalidArgument, Op: "decode watermark data", Err: err}
			}
			return watermark.ImageMark{Data: raw}, nil
		}
		return watermark.ImageMark{Path: data}, nil
	}
	return nil, &watermark.Error{
		Kind: watermark.KindInvalidArgument,
		Op:   "select watermark",
		Err:  fmt.Errorf("invalid watermark type %q: use image or text", cfg.WatermarkType),
	}
}

func writeBase64(engine *watermark.Engine, cfg *config.Config, input string, w io.Writer, mark watermark.Mark, pos watermark.Position, opacity uint8) (watermark.Info, error) {
	out, info, err := engine.Render(input, mark, pos, opacity)
	if err != nil {
		return watermark.Info{}, err
	}

	encoded, err := watermark.EncodePNGToBase64(out, cfg.PNGCompression())
	if err != nil {
		return watermark.Info{}, &watermark.Error{Kind: watermark.KindIO, Op: "encode png", Err: err}
	}
	fmt.Fprintln(w, encoded)
	return info, nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrInvalid):
		return exitInvalidArgument
	}

	switch watermark.KindOf(err) {
	case watermark.KindInvalidArgument:
		return exitInvalidArgument
	case watermark.KindNotFound:
		return exitNotFound
	case watermark.KindIO:
		return exitIO
	}
	return exitFailure
}

func usage(fs *pflag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Add a watermark (text or image) to an image.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: add-watermark [flags] input_image output_image watermark_data")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  input_image     Path to the input image.")
	fmt.Fprintln(w, "  output_image    Path to save the PNG output, or - for base64 on stdout.")
	fmt.Fprintln(w, "  watermark_data  Path or data URL of the watermark image, or the watermark text.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
}

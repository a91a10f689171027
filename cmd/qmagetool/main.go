/*
NAME
  main.go

DESCRIPTION
  qmagetool decodes a Qmage still (.qmg) or animation (.qmga) file to a
  sequence of PNG previews, for manual inspection of the codec/qmage
  and container/qmage packages.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command qmagetool decodes Qmage files to PNG previews.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/go-qmage/qmage/codec/qmage"
	qmagecontainer "github.com/go-qmage/qmage/container/qmage"
)

const pkg = "qmagetool: "

// toolLogger adapts the standard library logger (backed by a rotating
// lumberjack file) to qmage.Logger, the same wiring cmd/rv and
// cmd/looper use for their own Logger implementations.
type toolLogger struct {
	level int8
	log   *log.Logger
}

func (l *toolLogger) SetLevel(level int8) { l.level = level }

func (l *toolLogger) Log(level int8, message string, params ...interface{}) {
	if level < l.level {
		return
	}
	l.log.Printf("%s %v", message, params)
}

func main() {
	in := flag.String("in", "", "path to a .qmg or .qmga file")
	out := flag.String("out", "out.png", "output PNG path; animation frames are suffixed -0000, -0001, ...")
	logPath := flag.String("log", "qmagetool.log", "rotating log file path")
	scale := flag.Float64("scale", 1, "uniform scale factor applied to the preview with golang.org/x/image/draw")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, pkg+"-in is required")
		os.Exit(2)
	}

	logger := &toolLogger{
		log: log.New(&lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}, pkg, log.LstdFlags),
	}

	if err := run(*in, *out, *scale, logger); err != nil {
		logger.Log(qmage.LogLevelError, "run failed", "error", err)
		fmt.Fprintln(os.Stderr, pkg+err.Error())
		os.Exit(1)
	}
}

func run(inPath, outPath string, scale float64, logger qmage.Logger) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf(pkg+"read input: %w", err)
	}

	ctx := qmage.NewContext(logger)

	ext := filepath.Ext(outPath)
	base := outPath[:len(outPath)-len(ext)]

	buf := data
	for i := 0; len(buf) > 0; i++ {
		n, err := qmagecontainer.PacketSize(buf)
		if err != nil {
			return fmt.Errorf(pkg+"packet %d boundary: %w", i, err)
		}
		if n <= 0 || n > len(buf) {
			return fmt.Errorf(pkg+"packet %d: implausible size %d", i, n)
		}

		frame, err := ctx.Decode(buf[:n])
		if err != nil {
			return fmt.Errorf(pkg+"decode packet %d: %w", i, err)
		}

		dst := outPath
		if i > 0 || n < len(buf) {
			dst = fmt.Sprintf("%s-%04d%s", base, i, ext)
		}
		if err := writePreview(dst, frame, scale); err != nil {
			return fmt.Errorf(pkg+"write packet %d: %w", i, err)
		}

		buf = buf[n:]
	}

	return nil
}

// writePreview converts frame's RGB565 raster to RGBA, optionally
// scales it with golang.org/x/image/draw, and writes it to path as a
// PNG.
func writePreview(path string, frame *qmage.Frame, scale float64) error {
	img := rgb565ToRGBA(frame)

	if scale != 1 {
		w := int(float64(img.Bounds().Dx()) * scale)
		h := int(float64(img.Bounds().Dy()) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = scaled
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

// rgb565ToRGBA unpacks frame's 16-bit packed RGB565 pixels into an
// 8-bit-per-channel image.RGBA, expanding each 5/6/5-bit channel to 8
// bits by replicating its high bits into the low bits (the standard
// RGB565-to-RGB888 widening used throughout embedded graphics code).
func rgb565ToRGBA(frame *qmage.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			i := y*frame.Stride + x*2
			v := uint16(frame.Pix[i]) | uint16(frame.Pix[i+1])<<8

			r5 := uint8(v >> 11 & 0x1F)
			g6 := uint8(v >> 5 & 0x3F)
			b5 := uint8(v & 0x1F)

			c := color.RGBA{
				R: r5<<3 | r5>>2,
				G: g6<<2 | g6>>4,
				B: b5<<3 | b5>>2,
				A: 0xFF,
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

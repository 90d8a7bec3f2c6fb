package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/svanichkin/cimbar"
	"github.com/svanichkin/cimbar/deskew"
	"github.com/svanichkin/cimbar/palette"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, "Usage:\n  cimbar <payload-file> [--light] [--ecc N] [--fountain] [--compress]\n  cimbar <image-file> --decode [--light] [--ecc N] [--fountain] [--deskew 0|1|2] [--force-preprocess] [--compress]\n")
		os.Exit(1)
	}

	inputPath := os.Args[1]
	flags := os.Args[2:]

	dark := true
	ecc := 30
	fountainOn := false
	decodeMode := false
	deskewLevel := deskew.LevelHomography
	forcePreprocess := false
	compress := false

	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case "--light":
			dark = false
		case "--decode":
			decodeMode = true
		case "--fountain":
			fountainOn = true
		case "--force-preprocess":
			forcePreprocess = true
		case "--compress":
			compress = true
		case "--ecc":
			i++
			if i >= len(flags) {
				fmt.Fprintln(os.Stderr, "--ecc requires a value")
				os.Exit(1)
			}
			n, err := strconv.Atoi(flags[i])
			if err != nil {
				fmt.Fprintln(os.Stderr, "--ecc must be an integer")
				os.Exit(1)
			}
			ecc = n
		case "--deskew":
			i++
			if i >= len(flags) {
				fmt.Fprintln(os.Stderr, "--deskew requires a value")
				os.Exit(1)
			}
			n, err := strconv.Atoi(flags[i])
			if err != nil || n < 0 || n > 2 {
				fmt.Fprintln(os.Stderr, "--deskew must be 0, 1, or 2")
				os.Exit(1)
			}
			deskewLevel = deskew.Level(n)
		default:
			fmt.Fprintf(os.Stderr, "unrecognized flag %q\n", flags[i])
			os.Exit(1)
		}
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if !decodeMode {
		decodeMode = ext == ".png" || ext == ".jpg" || ext == ".jpeg"
	}

	p := palette.Dark()
	if !dark {
		p = palette.Light()
	}
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))

	var err error
	if decodeMode {
		err = decodeFile(inputPath, base+".out", p, ecc, fountainOn, deskewLevel, forcePreprocess, compress)
	} else {
		err = encodeFile(inputPath, base+".png", p, ecc, fountainOn, compress)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "cimbar:", err)
		os.Exit(1)
	}
}

// compressPayload applies the caller-side Zstandard pass spec.md §1
// explicitly leaves external to the core ("the choice of compression
// pass (Zstandard) applied by the caller before/after the fountain
// layer").
func compressPayload(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressPayload(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

func encodeFile(inPath, outPath string, p palette.Palette, ecc int, fountainOn, compress bool) error {
	info, err := os.Stat(inPath)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	if compress {
		payload, err = compressPayload(payload)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	img, err := cimbar.Encode(payload, cimbar.Options{Palette: p, ECC: ecc, Fountain: fountainOn})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return err
	}

	fmt.Printf("%s (%s) -> %s\n", inPath, formatSize(info.Size()), outPath)
	fmt.Printf("ecc=%d, fountain=%v, time=%s\n", ecc, fountainOn, elapsed)
	return nil
}

func decodeFile(inPath, outPath string, p palette.Palette, ecc int, fountainOn bool, level deskew.Level, forcePreprocess, compress bool) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return err
	}

	start := time.Now()
	payload, err := cimbar.Decode(img, cimbar.DecodeOptions{
		Options:         cimbar.Options{Palette: p, ECC: ecc, Fountain: fountainOn},
		DeskewLevel:     level,
		ForcePreprocess: forcePreprocess,
	})
	if err != nil {
		return err
	}
	if compress {
		payload, err = decompressPayload(payload)
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	if err := os.WriteFile(outPath, payload, 0o644); err != nil {
		return err
	}

	fmt.Printf("%s -> %s (%s)\n", inPath, outPath, formatSize(int64(len(payload))))
	fmt.Printf("ecc=%d, fountain=%v, time=%s\n", ecc, fountainOn, elapsed)
	return nil
}

func formatSize(size int64) string {
	if size < 1024*1024 {
		return fmt.Sprintf("%.2f KB", float64(size)/1024)
	}
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}

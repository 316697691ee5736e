// Command bury is the CLI front-end for the bury steganographic
// codec. Image decode/encode, on-disk I/O, and logging configuration
// are all external-collaborator concerns, so they live here rather
// than in the core packages.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg" // format sniffing only; refused as an output target below
	"image/png"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"github.com/sirupsen/logrus"

	"github.com/bury-stego/bury"
	"github.com/bury-stego/bury/internal/archive"
	"github.com/bury-stego/bury/internal/compat"
	"github.com/bury-stego/bury/internal/humansize"
)

var log = logrus.New()

func main() {
	fs := flag.NewFlagSet("bury", flag.ExitOnError)

	var (
		function      = fs.String("function", "", "encode, decode, compat, or bundle")
		inputFile     = fs.String("input", "", "message file (encode) or carrier image (decode)")
		carrierFile   = fs.String("carrier", "", "victim carrier image (encode)")
		outputFile    = fs.String("output", "", "output file")
		password      = fs.String("password", "", "password driving key derivation and pixel layout")
		passwordsCSV  = fs.String("passwords", "", "comma-separated passwords for -function=compat")
		enableRed     = fs.Bool("red", true, "use the red channel")
		enableGreen   = fs.Bool("green", true, "use the green channel")
		enableBlue    = fs.Bool("blue", true, "use the blue channel")
		compress      = fs.Bool("compress", false, "bzip2-compress the message before encryption")
		rescale       = fs.Bool("rescale", false, "shrink the carrier to the minimum size that fits")
		storeFilename = fs.Bool("store-filename", false, "prepend a 32-byte filename field")
		visible       = fs.Bool("visible", false, "debug: replace modulated pixels with a solid color")
		erasureShards = fs.Int("erasure-shards", 0, "Reed-Solomon data shards for payload resilience (0 disables)")
		erasureParity = fs.Int("erasure-parity", 0, "Reed-Solomon parity shards for payload resilience")
		verbose       = fs.Bool("verbose", false, "enable debug logging")
	)

	err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BURY"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	if err != nil {
		log.Fatal(err)
	}

	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *function == "" {
		log.Fatal("function is required: use encode, decode, compat, or bundle")
	}

	switch *function {
	case "encode":
		runEncode(*inputFile, *carrierFile, *outputFile, *password, bury.Options{
			EnableRed:      *enableRed,
			EnableGreen:    *enableGreen,
			EnableBlue:     *enableBlue,
			Compress:       *compress,
			RescaleCarrier: *rescale,
			StoreFilename:  *storeFilename,
			Filename:       *inputFile,
			VisibleResult:  *visible,
			DebugColor:     [3]byte{255, 0, 0},
			ErasureShards:  *erasureShards,
			ErasureParity:  *erasureParity,
		})

	case "decode":
		runDecode(*inputFile, *outputFile, *password)

	case "compat":
		runCompat(*passwordsCSV)

	case "bundle":
		if err := archive.Bundle(*inputFile, *outputFile); err != nil {
			log.Fatal(err)
		}
		log.Infof("wrote bundle to %s", *outputFile)

	default:
		log.Fatalf("invalid function %q: use encode, decode, compat, or bundle", *function)
	}
}

func requirePNG(path string) {
	if strings.HasSuffix(strings.ToLower(path), ".jpg") || strings.HasSuffix(strings.ToLower(path), ".jpeg") {
		log.Fatalf("%s: refusing a lossy JPEG carrier -- serialize to PNG instead", path)
	}
}

func runEncode(inputFile, carrierFile, outputFile, password string, opts bury.Options) {
	if inputFile == "" || carrierFile == "" || outputFile == "" || password == "" {
		log.Fatal("encode requires -input, -carrier, -output and -password")
	}
	requirePNG(outputFile)

	message, err := os.ReadFile(inputFile)
	if err != nil {
		log.Fatalf("reading message file: %v", err)
	}

	carrierImg, err := decodeCarrier(carrierFile)
	if err != nil {
		log.Fatalf("decoding carrier: %v", err)
	}

	op := bury.New()
	out, err := op.Encode(carrierImg, []byte(password), message, opts)
	if err != nil {
		log.Fatalf("encode: %v", err)
	}

	if err := writePNG(outputFile, out); err != nil {
		log.Fatalf("writing output: %v", err)
	}
	log.Infof("buried %s into %s", humansize.Format(int64(len(message))), outputFile)
}

func runDecode(inputFile, outputFile, password string) {
	if inputFile == "" || outputFile == "" || password == "" {
		log.Fatal("decode requires -input, -output and -password")
	}

	carrierImg, err := decodeCarrier(inputFile)
	if err != nil {
		log.Fatalf("decoding carrier: %v", err)
	}

	op := bury.New()
	result, err := op.Decode(carrierImg, []byte(password))
	if err != nil {
		log.Fatalf("decode: %v", err)
	}

	if err := os.WriteFile(outputFile, result.Message, 0o644); err != nil {
		log.Fatalf("writing message: %v", err)
	}
	if result.Filename != "" {
		log.Infof("recovered filename hint: %q", result.Filename)
	}
	log.Infof("recovered %s to %s", humansize.Format(int64(len(result.Message))), outputFile)
}

func runCompat(passwordsCSV string) {
	parts := strings.Split(passwordsCSV, ",")
	if len(parts) < 2 || len(parts) > 3 {
		log.Fatal("compat requires 2 or 3 comma-separated -passwords")
	}
	pws := make([][]byte, len(parts))
	for i, p := range parts {
		pws[i] = []byte(strings.TrimSpace(p))
	}

	ok, err := compat.AreCompatible(pws...)
	if err != nil {
		log.Fatalf("compat: %v", err)
	}
	fmt.Println(ok)
}

func decodeCarrier(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

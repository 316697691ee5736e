// Package bury is the steganographic codec: it binds key derivation,
// stride scheduling, bit modulation, header framing, and the
// crypto/compress pipeline into two operations, Encode and Decode,
// exposed through a one-shot Op value.
//
// A BuryOp performs exactly one directed operation. Reusing an
// instance for a second operation risks reusing state that must never
// be reused (in particular the stride cursor), so the type
// transitions to a terminal state after its first call and refuses a
// second one.
package bury

import (
	"image"

	"github.com/bury-stego/bury/internal/bitcodec"
	"github.com/bury-stego/bury/internal/buryerr"
	"github.com/bury-stego/bury/internal/cryptopipeline"
	"github.com/bury-stego/bury/internal/erasure"
	"github.com/bury-stego/bury/internal/header"
	"github.com/bury-stego/bury/internal/keyderiver"
	"github.com/bury-stego/bury/internal/raster"
	"github.com/bury-stego/bury/internal/rescale"
	"github.com/bury-stego/bury/internal/stride"
)

// Options is the explicit, closed set of recognized configuration
// values. There is no dynamic options bag: an unknown option is a
// compile error, not a silently ignored key.
type Options struct {
	EnableRed   bool
	EnableGreen bool
	EnableBlue  bool

	Compress      bool
	RescaleCarrier bool
	StoreFilename bool
	Filename      string

	// VisibleResult replaces modulated pixels with a solid debug
	// color instead of random fill, to visualize coverage.
	VisibleResult bool
	DebugColor    [3]byte

	// ErasureShards/ErasureParity opt into the optional Reed-Solomon
	// payload shield (SPEC_FULL.md §B). Zero means disabled.
	ErasureShards int
	ErasureParity int
}

func (o Options) channels() bitcodec.Channels {
	return bitcodec.Channels{R: o.EnableRed, G: o.EnableGreen, B: o.EnableBlue}
}

func (o Options) erasure() erasure.Shield {
	return erasure.Shield{DataShards: o.ErasureShards, ParityShards: o.ErasureParity}
}

// state tracks whether an Op has already run, so it can refuse a
// second use instead of silently reusing state that must never be
// reused.
type state int

const (
	stateFresh state = iota
	stateDone
	statePoisoned
)

// Op performs exactly one directed operation. It holds only its
// state; the raster and password-derived parameters live for the
// duration of that one call.
type Op struct {
	st state
}

// New returns a fresh, unused Op.
func New() *Op { return &Op{st: stateFresh} }

func (op *Op) begin(name string) error {
	if op.st != stateFresh {
		return buryerr.New(name, buryerr.InstanceReused, nil)
	}
	return nil
}

// Result is the outcome of a successful Decode.
type Result struct {
	Message  []byte
	Filename string
}

// Encode buries message into a copy of carrier under password,
// returning the modified raster. carrier is never mutated in place;
// the returned image.Image is a fresh raster.
func (op *Op) Encode(carrier image.Image, password []byte, message []byte, opts Options) (image.Image, error) {
	if err := op.begin("Encode"); err != nil {
		return nil, err
	}
	defer func() { op.st = stateDone }()

	ch := opts.channels()
	if ch.Count() == 0 {
		op.st = statePoisoned
		return nil, buryerr.New("Encode", buryerr.NoChannels, nil)
	}

	pdp, err := keyderiver.Derive(password)
	if err != nil {
		op.st = statePoisoned
		return nil, err
	}

	view, err := raster.FromImage(carrier)
	if err != nil {
		op.st = statePoisoned
		return nil, err
	}

	pixels := stride.Schedule(pdp.StrideSeed, pdp.MaxStride, pdp.Offset, view.TotalPixels())

	pipelineOpts := cryptopipeline.Options{
		Compress:      opts.Compress,
		StoreFilename: opts.StoreFilename,
		Filename:      opts.Filename,
		Erasure:       opts.erasure(),
	}
	framed, err := cryptopipeline.Encrypt(message, pipelineOpts, pdp.CipherKey)
	if err != nil {
		op.st = statePoisoned
		return nil, err
	}

	maxPayloadBytes := (ch.Count() * len(pixels)) / 8
	if len(framed) > maxPayloadBytes {
		op.st = statePoisoned
		return nil, buryerr.New("Encode", buryerr.PayloadTooLarge, nil)
	}

	if opts.RescaleCarrier {
		view, pixels = maybeRescale(view, ch, pdp, len(framed))
	}

	if err := header.WriteChannelSpec(view, int(pdp.Offset), ch); err != nil {
		op.st = statePoisoned
		return nil, err
	}

	var fillColor *[3]byte
	if opts.VisibleResult {
		fillColor = &opts.DebugColor
	}
	if err := bitcodec.Modulate(view, pixels, ch, framed, fillColor); err != nil {
		op.st = statePoisoned
		return nil, err
	}

	return view.Image(), nil
}

// requiredStridePixels returns the smallest N such that N*bitsPerPixel >=
// 8*payloadSize, i.e. the number of stride pixels needed.
func requiredStridePixels(bitsPerPixel, payloadSize int) int {
	if bitsPerPixel == 0 {
		return 0
	}
	bitsNeeded := 8 * payloadSize
	n := bitsNeeded / bitsPerPixel
	if bitsNeeded%bitsPerPixel != 0 {
		n++
	}
	return n
}

func maybeRescale(view *raster.View, ch bitcodec.Channels, pdp keyderiver.PDP, payloadSize int) (*raster.View, []int) {
	origPixels := stride.Schedule(pdp.StrideSeed, pdp.MaxStride, pdp.Offset, view.TotalPixels())

	n := requiredStridePixels(ch.Count(), payloadSize)
	// requiredPixels is the linear-index budget the stride walk needs
	// to reach: offset plus n strides of at most maxStride-1 each. We
	// use n * maxStride, which bounds that worst-case sum from above,
	// so the shrunk raster reliably has room once real strides are
	// drawn.
	requiredPixels := int(pdp.Offset) + n*pdp.MaxStride

	newW, newH := rescale.Dimensions(view.Width(), view.Height(), requiredPixels)
	if !rescale.Accept(view.Width(), view.Height(), newW, newH, requiredPixels) {
		return view, origPixels
	}

	shrunk := view.ResizePreservingAspect(newW, newH)
	newPixels := stride.Schedule(pdp.StrideSeed, pdp.MaxStride, pdp.Offset, shrunk.TotalPixels())
	return shrunk, newPixels
}

// Decode extracts and decrypts the message buried in carrier under
// password.
func (op *Op) Decode(carrier image.Image, password []byte) (Result, error) {
	if err := op.begin("Decode"); err != nil {
		return Result{}, err
	}
	defer func() { op.st = stateDone }()

	pdp, err := keyderiver.Derive(password)
	if err != nil {
		op.st = statePoisoned
		return Result{}, err
	}

	view, err := raster.FromImage(carrier)
	if err != nil {
		op.st = statePoisoned
		return Result{}, err
	}

	ch, err := header.ReadChannelSpec(view, int(pdp.Offset))
	if err != nil {
		op.st = statePoisoned
		return Result{}, err
	}
	if ch.Count() == 0 {
		op.st = statePoisoned
		return Result{}, buryerr.New("Decode", buryerr.NoChannels, nil)
	}

	pixels := stride.Schedule(pdp.StrideSeed, pdp.MaxStride, pdp.Offset, view.TotalPixels())

	headerBytes, err := bitcodec.Demodulate(view, pixels[:min(len(pixels), pixelsFor(ch, header.Size))], ch)
	if err != nil {
		op.st = statePoisoned
		return Result{}, err
	}
	_, _, payloadSize, err := header.ParseHeader(headerBytes)
	if err != nil {
		op.st = statePoisoned
		return Result{}, err
	}

	totalNeededBytes := header.Size + int(payloadSize)
	pixelsNeeded := pixelsFor(ch, totalNeededBytes)
	if pixelsNeeded > len(pixels) {
		op.st = statePoisoned
		return Result{}, buryerr.New("Decode", buryerr.ShortHeader, nil)
	}

	framed, err := bitcodec.Demodulate(view, pixels[:pixelsNeeded], ch)
	if err != nil {
		op.st = statePoisoned
		return Result{}, err
	}
	framed = framed[:totalNeededBytes]

	decrypted, err := cryptopipeline.Decrypt(framed, pdp.CipherKey)
	if err != nil {
		op.st = statePoisoned
		return Result{}, err
	}

	return Result{Message: decrypted.Message, Filename: decrypted.Filename}, nil
}

// pixelsFor returns how many stride pixels are needed to carry
// numBytes bytes at ch's bits-per-pixel density.
func pixelsFor(ch bitcodec.Channels, numBytes int) int {
	bpp := ch.Count()
	if bpp == 0 {
		return 0
	}
	bitsNeeded := numBytes * 8
	n := bitsNeeded / bpp
	if bitsNeeded%bpp != 0 {
		n++
	}
	return n
}

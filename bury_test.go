package bury

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bury-stego/bury/internal/buryerr"
)

func testCarrier(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = byte((x * 37) % 256)
			img.Pix[i+1] = byte((y * 53) % 256)
			img.Pix[i+2] = byte((x + y) % 256)
			img.Pix[i+3] = 255
		}
	}
	return img
}

func TestEncodeDecodeRoundTripAllChannels(t *testing.T) {
	carrier := testCarrier(64, 64)
	password := []byte("saddroPs")
	message := []byte("The treasure is buried at midnight.")

	opts := Options{EnableRed: true, EnableGreen: true, EnableBlue: true}

	encoded, err := New().Encode(carrier, password, message, opts)
	require.NoError(t, err)

	got, err := New().Decode(encoded, password)
	require.NoError(t, err)
	require.Equal(t, message, got.Message)
}

// Round-trip with compression enabled over a highly repetitive
// message, so bzip2 actually shrinks the payload.
func TestEncodeDecodeRoundTripWithCompression(t *testing.T) {
	carrier := testCarrier(128, 128)
	password := []byte("compress-me-pls")
	message := []byte(
		"repeat repeat repeat repeat repeat repeat repeat repeat repeat repeat " +
			"repeat repeat repeat repeat repeat repeat repeat repeat repeat repeat")

	opts := Options{EnableRed: true, EnableGreen: true, EnableBlue: true, Compress: true}

	encoded, err := New().Encode(carrier, password, message, opts)
	require.NoError(t, err)

	got, err := New().Decode(encoded, password)
	require.NoError(t, err)
	require.Equal(t, message, got.Message)
}

// The filename field round-trips exactly, left-padded/truncated to
// 32 bytes as needed.
func TestEncodeDecodeRoundTripWithFilename(t *testing.T) {
	carrier := testCarrier(48, 48)
	password := []byte("filenametest1")
	message := []byte("meme attached")

	opts := Options{EnableRed: true, EnableGreen: true, EnableBlue: true, StoreFilename: true, Filename: "Rage_face.png"}

	encoded, err := New().Encode(carrier, password, message, opts)
	require.NoError(t, err)

	got, err := New().Decode(encoded, password)
	require.NoError(t, err)
	require.Equal(t, message, got.Message)
	require.Equal(t, "Rage_face.png", got.Filename)
}

// Decoding with the wrong password must fail, not silently return
// garbage: a different password walks different pixels, so the
// channel-spec, header or checksum check rejects what it reads.
func TestDecodeWrongPasswordFails(t *testing.T) {
	carrier := testCarrier(64, 64)
	message := []byte("only the right password should unlock this")

	opts := Options{EnableRed: true, EnableGreen: true, EnableBlue: true}

	encoded, err := New().Encode(carrier, []byte("correct-password"), message, opts)
	require.NoError(t, err)

	_, err = New().Decode(encoded, []byte("incorrect-password"))
	require.Error(t, err)
}

// A carrier too small for the payload must fail with PayloadTooLarge,
// unconditionally -- rescale can only shrink, never rescue an
// under-capacity carrier.
func TestEncodeCarrierTooSmallFails(t *testing.T) {
	carrier := testCarrier(4, 4)
	password := []byte("tinycarrierpw")
	message := make([]byte, 4096)

	opts := Options{EnableRed: true}

	_, err := New().Encode(carrier, password, message, opts)
	require.ErrorIs(t, err, buryerr.PayloadTooLarge)
}

func TestEncodeCarrierTooSmallFailsEvenWithRescale(t *testing.T) {
	carrier := testCarrier(4, 4)
	password := []byte("tinycarrierpw")
	message := make([]byte, 4096)

	opts := Options{EnableRed: true, RescaleCarrier: true}

	_, err := New().Encode(carrier, password, message, opts)
	require.ErrorIs(t, err, buryerr.PayloadTooLarge)
}

func TestEncodeRescaleShrinksCarrier(t *testing.T) {
	carrier := testCarrier(512, 512)
	password := []byte("shrinkmeplease")
	message := []byte("small message")

	opts := Options{EnableRed: true, EnableGreen: true, EnableBlue: true, RescaleCarrier: true}

	encoded, err := New().Encode(carrier, password, message, opts)
	require.NoError(t, err)
	require.Less(t, encoded.Bounds().Dx()*encoded.Bounds().Dy(), 512*512)

	got, err := New().Decode(encoded, password)
	require.NoError(t, err)
	require.Equal(t, message, got.Message)
}

func TestOpRefusesReuse(t *testing.T) {
	carrier := testCarrier(64, 64)
	password := []byte("singleusepass1")
	opts := Options{EnableRed: true, EnableGreen: true, EnableBlue: true}

	op := New()
	_, err := op.Encode(carrier, password, []byte("first"), opts)
	require.NoError(t, err)

	_, err = op.Encode(carrier, password, []byte("second"), opts)
	require.ErrorIs(t, err, buryerr.InstanceReused)
}

func TestEncodeRejectsNoChannels(t *testing.T) {
	carrier := testCarrier(32, 32)
	_, err := New().Encode(carrier, []byte("nochannelspw1"), []byte("x"), Options{})
	require.ErrorIs(t, err, buryerr.NoChannels)
}

func TestEncodeDecodeRoundTripWithErasureShield(t *testing.T) {
	carrier := testCarrier(96, 96)
	password := []byte("erasureshield1")
	message := []byte("protected against a handful of flipped bits")

	opts := Options{
		EnableRed: true, EnableGreen: true, EnableBlue: true,
		ErasureShards: 4, ErasureParity: 2,
	}

	encoded, err := New().Encode(carrier, password, message, opts)
	require.NoError(t, err)

	got, err := New().Decode(encoded, password)
	require.NoError(t, err)
	require.Equal(t, message, got.Message)
}

func TestEncodeVisibleResultSucceeds(t *testing.T) {
	carrier := testCarrier(64, 64)
	password := []byte("visibledebugpw")
	message := []byte("hi")

	opts := Options{
		EnableRed: true, EnableGreen: true, EnableBlue: true,
		VisibleResult: true, DebugColor: [3]byte{255, 0, 255},
	}

	encoded, err := New().Encode(carrier, password, message, opts)
	require.NoError(t, err)
	require.NotNil(t, encoded)
}

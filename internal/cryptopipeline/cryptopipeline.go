// Package cryptopipeline implements the filename-prepend / compress /
// encrypt / checksum pipeline: optional 32-byte filename field,
// optional BZip2 compression, AES-128-CBC encryption with a fresh
// random IV, and an unkeyed MD5 checksum over the ciphertext alone.
package cryptopipeline

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/bury-stego/bury/internal/buryerr"
	"github.com/bury-stego/bury/internal/erasure"
	"github.com/bury-stego/bury/internal/header"
)

const (
	filenameFieldLen = 32
	ivLen            = 16
	checksumLen      = 16
	aesKeyLen        = 16 // AES-128; the derived key's remaining bytes go unused.
)

// Options controls the encode-side of the pipeline. Filename is only
// used when StoreFilename is true.
type Options struct {
	Compress      bool
	StoreFilename bool
	Filename      string
	Erasure       erasure.Shield
}

// Encrypt runs the full encode-side pipeline over plaintext and
// returns the framed bytes (header || IV || ciphertext || checksum)
// ready for modulation.
func Encrypt(plaintext []byte, opts Options, cipherKey [32]byte) ([]byte, error) {
	var msgParams byte

	body := plaintext
	if opts.StoreFilename {
		body = append(padFilename(opts.Filename), body...)
		msgParams |= header.ParamFilename
	}

	if opts.Compress {
		compressed, err := bzip2Compress(body)
		if err != nil {
			return nil, buryerr.New("cryptopipeline.Encrypt", buryerr.DecompressFailure, err)
		}
		body = compressed
		msgParams |= header.ParamCompressed
	}

	iv := make([]byte, ivLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, buryerr.New("cryptopipeline.Encrypt", buryerr.DecryptFailure, err)
	}

	ciphertext, err := aesCBCEncrypt(cipherKey[:aesKeyLen], iv, body)
	if err != nil {
		return nil, buryerr.New("cryptopipeline.Encrypt", buryerr.DecryptFailure, err)
	}

	msgParams |= header.ParamEncrypted // encryption is never optional on write.

	sum := md5.Sum(ciphertext)

	payload := make([]byte, 0, ivLen+len(ciphertext)+checksumLen)
	payload = append(payload, iv...)
	payload = append(payload, ciphertext...)
	payload = append(payload, sum[:]...)

	if opts.Erasure.Enabled() {
		coded, err := opts.Erasure.Wrap(payload)
		if err != nil {
			return nil, buryerr.New("cryptopipeline.Encrypt", buryerr.DecryptFailure, err)
		}
		payload = coded
		msgParams |= header.ParamErasure
	}

	hdr, err := header.PackHeader(header.Version, msgParams, uint64(len(payload)))
	if err != nil {
		return nil, err
	}

	framed := make([]byte, 0, header.Size+len(payload))
	framed = append(framed, hdr[:]...)
	framed = append(framed, payload...)
	return framed, nil
}

// Decrypted is the result of running the decode-side pipeline.
type Decrypted struct {
	Message  []byte
	Filename string // "" if no filename field was present.
}

// Decrypt runs the full decode-side pipeline over the demodulated
// bytes: parse header, verify checksum, decrypt, decompress, split
// off the filename field.
func Decrypt(framed []byte, cipherKey [32]byte) (Decrypted, error) {
	_, msgParams, payloadSize, err := header.ParseHeader(framed)
	if err != nil {
		return Decrypted{}, err
	}

	rest := framed[header.Size:]
	if len(rest) < int(payloadSize) {
		return Decrypted{}, buryerr.New("cryptopipeline.Decrypt", buryerr.ShortHeader, nil)
	}
	payload := rest[:payloadSize]

	if msgParams&header.ParamErasure != 0 {
		unwrapped, err := erasure.Unwrap(payload)
		if err != nil {
			return Decrypted{}, buryerr.New("cryptopipeline.Decrypt", buryerr.DecryptFailure, err)
		}
		payload = unwrapped
	}

	if len(payload) < ivLen+checksumLen {
		return Decrypted{}, buryerr.New("cryptopipeline.Decrypt", buryerr.ShortHeader, nil)
	}

	iv := payload[:ivLen]
	ciphertext := payload[ivLen : len(payload)-checksumLen]
	wantSum := payload[len(payload)-checksumLen:]

	gotSum := md5.Sum(ciphertext)
	if !bytes.Equal(gotSum[:], wantSum) {
		return Decrypted{}, buryerr.New("cryptopipeline.Decrypt", buryerr.BadChecksum, nil)
	}

	body, err := aesCBCDecrypt(cipherKey[:aesKeyLen], iv, ciphertext)
	if err != nil {
		return Decrypted{}, buryerr.New("cryptopipeline.Decrypt", buryerr.DecryptFailure, err)
	}

	if msgParams&header.ParamCompressed != 0 {
		decompressed, err := bzip2Decompress(body)
		if err != nil {
			return Decrypted{}, buryerr.New("cryptopipeline.Decrypt", buryerr.DecompressFailure, err)
		}
		body = decompressed
	}

	var filename string
	if msgParams&header.ParamFilename != 0 {
		if len(body) < filenameFieldLen {
			return Decrypted{}, buryerr.New("cryptopipeline.Decrypt", buryerr.FilenameInvalid, nil)
		}
		filename = trimFilename(body[:filenameFieldLen])
		body = body[filenameFieldLen:]
	}

	return Decrypted{Message: body, Filename: filename}, nil
}

// padFilename left-pads name with spaces to exactly 32 bytes,
// truncating from the front (keeping the last 32 bytes) so the
// extension at the end survives.
func padFilename(name string) []byte {
	b := []byte(name)
	if len(b) >= filenameFieldLen {
		return b[len(b)-filenameFieldLen:]
	}
	out := make([]byte, filenameFieldLen)
	for i := range out {
		out[i] = ' '
	}
	copy(out[filenameFieldLen-len(b):], b)
	return out
}

// trimFilename strips leading/trailing ASCII spaces only.
func trimFilename(b []byte) string {
	start, end := 0, len(b)
	for start < end && b[start] == ' ' {
		start++
	}
	for end > start && b[end-1] == ' ' {
		end--
	}
	return string(b[start:end])
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, buryerr.DecryptFailure
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, buryerr.DecryptFailure
	}
	return data[:len(data)-padLen], nil
}

func aesCBCEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func aesCBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, buryerr.DecryptFailure
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}

func bzip2Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: 9})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bzip2Decompress(data []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), &bzip2.ReaderConfig{})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

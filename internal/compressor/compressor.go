package compressor

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"

	"github.com/klauspost/compress/zstd"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

const (
	// DefaultZstdLevel matches the classic zstd level scale
	DefaultZstdLevel = 3

	// gzipLevel is used when gzip is the selected or fallback codec
	gzipLevel = 6
)

// Result describes one compressed payload
type Result struct {
	Data           []byte
	OriginalSize   int
	CompressedSize int
	Type           types.CompressionType
}

// Compressor converts chunk text to and from its stored payload form.
// Implementations never fail outright: incompressible or undecodable input
// degrades to the raw bytes tagged CompressionNone.
type Compressor interface {
	Compress(text string) Result
	Decompress(data []byte, ctype types.CompressionType) string
}

// TextCompressor compresses chunk text with zstd, falling back to gzip when
// the zstd codec cannot be constructed. Safe for concurrent use; EncodeAll
// and DecodeAll are stateless per call.
type TextCompressor struct {
	defaultType types.CompressionType
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// New creates a TextCompressor. defaultType selects the preferred codec;
// level is a classic zstd level (3 is the usual trade-off). Zero values mean
// zstd at the default level.
func New(defaultType types.CompressionType, level int) *TextCompressor {
	if defaultType == "" {
		defaultType = types.CompressionZstd
	}
	if level <= 0 {
		level = DefaultZstdLevel
	}

	c := &TextCompressor{defaultType: defaultType}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		log.Printf("compressor: zstd encoder unavailable, using gzip: %v", err)
	} else {
		c.encoder = encoder
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		log.Printf("compressor: zstd decoder unavailable: %v", err)
	} else {
		c.decoder = decoder
	}

	return c
}

// CompressionType reports the codec Compress will actually use
func (c *TextCompressor) CompressionType() types.CompressionType {
	if c.defaultType == types.CompressionZstd && c.encoder != nil {
		return types.CompressionZstd
	}
	return types.CompressionGzip
}

// Compress encodes text with the preferred codec. Empty text produces an
// empty CompressionNone result; payloads that do not shrink are stored raw
// and tagged CompressionNone so Decompress can return them verbatim.
func (c *TextCompressor) Compress(text string) Result {
	if text == "" {
		return Result{Data: []byte{}, Type: types.CompressionNone}
	}

	original := []byte(text)
	ctype := c.CompressionType()

	var compressed []byte
	switch ctype {
	case types.CompressionZstd:
		compressed = c.encoder.EncodeAll(original, nil)
	default:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, gzipLevel)
		if err == nil {
			_, err = w.Write(original)
		}
		if err == nil {
			err = w.Close()
		}
		if err != nil {
			log.Printf("compressor: gzip failed: %v", err)
			return rawResult(original)
		}
		compressed = buf.Bytes()
		ctype = types.CompressionGzip
	}

	if len(compressed) >= len(original) {
		return rawResult(original)
	}

	return Result{
		Data:           compressed,
		OriginalSize:   len(original),
		CompressedSize: len(compressed),
		Type:           ctype,
	}
}

// Decompress restores chunk text from its stored payload. Unknown tags and
// decode failures fall back to interpreting the bytes as raw UTF-8.
func (c *TextCompressor) Decompress(data []byte, ctype types.CompressionType) string {
	if len(data) == 0 {
		return ""
	}

	switch ctype {
	case types.CompressionNone:
		return string(data)

	case types.CompressionZstd:
		if c.decoder == nil {
			log.Printf("compressor: zstd decoder unavailable for stored payload")
			return string(data)
		}
		out, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			log.Printf("compressor: zstd decode failed: %v", err)
			return string(data)
		}
		return string(out)

	case types.CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			log.Printf("compressor: gzip decode failed: %v", err)
			return string(data)
		}
		out, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			log.Printf("compressor: gzip decode failed: %v", err)
			return string(data)
		}
		return string(out)

	default:
		return string(data)
	}
}

func rawResult(original []byte) Result {
	return Result{
		Data:           original,
		OriginalSize:   len(original),
		CompressedSize: len(original),
		Type:           types.CompressionNone,
	}
}

// Package compression provides streaming compression support for Prism
// input and output files, with multiple algorithms and configurable levels.
//
// # Overview
//
// The compression package provides:
//   - Multiple compression algorithms (Gzip, Snappy, LZ4, Zstd, S2, Deflate)
//   - Configurable compression levels (Fastest, Default, Better, Best)
//   - Streaming readers and writers that wrap arbitrary io.Reader/io.Writer
//   - File extension detection for transparent decompression
//
// # Algorithm Selection
//
// Choose algorithms based on your requirements:
//   - Snappy/S2: Best for speed, moderate compression
//   - LZ4: Extremely fast, decent compression
//   - Zstd: Best compression ratio, good speed
//   - Gzip: Wide compatibility, good compression
//   - Deflate: Standard algorithm, wide support
//
// # Basic Usage
//
//	// Wrap a file for transparent decompression
//	f, _ := os.Open("data.csv.gz")
//	r, err := compression.NewReader(f, compression.Gzip)
//	defer r.Close()
//
//	// Wrap a writer for transparent compression
//	out, _ := os.Create("result.csv.zst")
//	w, err := compression.NewWriter(out, compression.Zstd, compression.Default)
//	defer w.Close()
package compression

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"strings"

	"github.com/ajitpratap0/prism/pkg/errors"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
// Each algorithm has different trade-offs between speed and compression ratio.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents deflate compression
	Deflate Algorithm = "deflate"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// extensions maps customary file extensions to algorithms.
var extensions = map[string]Algorithm{
	".gz":  Gzip,
	".sz":  Snappy,
	".lz4": LZ4,
	".zst": Zstd,
	".s2":  S2,
	".zz":  Deflate,
}

// FromExtension maps a file extension such as ".gz" to its algorithm.
// The second return value reports whether the extension is recognized.
func FromExtension(ext string) (Algorithm, bool) {
	algo, ok := extensions[strings.ToLower(ext)]
	return algo, ok
}

// Extension returns the customary file extension for the algorithm,
// or the empty string for None.
func (a Algorithm) Extension() string {
	for ext, algo := range extensions {
		if algo == a {
			return ext
		}
	}
	return ""
}

// ParseAlgorithm parses an algorithm name as used in configuration files.
// The empty string parses as None.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(s)) {
	case "", None:
		return None, nil
	case Gzip:
		return Gzip, nil
	case Snappy:
		return Snappy, nil
	case LZ4:
		return LZ4, nil
	case Zstd:
		return Zstd, nil
	case S2:
		return S2, nil
	case Deflate:
		return Deflate, nil
	default:
		return None, errors.Newf(errors.ErrorTypeFormat, "unsupported compression algorithm: %s", s)
	}
}

// ParseLevel parses a level name as used in configuration files.
// The empty string parses as Default.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return Default, nil
	case "fastest":
		return Fastest, nil
	case "better":
		return Better, nil
	case "best":
		return Best, nil
	default:
		return Default, errors.Newf(errors.ErrorTypeFormat, "unsupported compression level: %s", s)
	}
}

// NewReader wraps r with streaming decompression for the given algorithm.
// For None the reader is returned unchanged behind a no-op closer. Closing
// the returned reader releases decompressor state but does not close r.
func NewReader(r io.Reader, algorithm Algorithm) (io.ReadCloser, error) {
	switch algorithm {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "invalid gzip stream")
		}
		return gr, nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "invalid zstd stream")
		}
		return dec.IOReadCloser(), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case Deflate:
		return flate.NewReader(r), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeFormat, "unsupported compression algorithm: %s", algorithm)
	}
}

// NewWriter wraps w with streaming compression for the given algorithm.
// Closing the returned writer flushes compressor state but does not close w.
func NewWriter(w io.Writer, algorithm Algorithm, level Level) (io.WriteCloser, error) {
	if level == 0 {
		level = Default
	}

	switch algorithm {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, mapGzipLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create gzip writer")
		}
		return gw, nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to configure lz4 writer")
		}
		return lw, nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd writer")
		}
		return zw, nil
	case S2:
		return s2.NewWriter(w, mapS2Options(level)...), nil
	case Deflate:
		fw, err := flate.NewWriter(w, mapDeflateLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create deflate writer")
		}
		return fw, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeFormat, "unsupported compression algorithm: %s", algorithm)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapS2Options(level Level) []s2.WriterOption {
	switch level {
	case Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	case Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	default:
		return nil
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

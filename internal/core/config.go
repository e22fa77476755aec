package core

import (
	"fmt"

	"golang.org/x/text/encoding/ianaindex"
)

// ParserPreference controls backend candidate ordering.
type ParserPreference int

const (
	// PreferNative tries registered in-process parsers first, bridge last.
	PreferNative ParserPreference = iota
	// PreferBridge tries the bridge engine first, native parsers after.
	PreferBridge
	// BridgeOnly never consults native parsers.
	BridgeOnly
)

func (p ParserPreference) String() string {
	switch p {
	case PreferBridge:
		return "prefer-bridge"
	case BridgeOnly:
		return "bridge-only"
	default:
		return "prefer-native"
	}
}

const (
	// DefaultMaxTextLength caps extracted text at 500KB.
	DefaultMaxTextLength = 500_000
	// DefaultMemoryMapThreshold is the size at which whole-file loading
	// gives way to mapping or streaming.
	DefaultMemoryMapThreshold = 1 << 20 // 1 MB
	// DefaultChunkSize is the streamed-read chunk size.
	DefaultChunkSize = 64 * 1024
)

// ExtractionConfig bundles the recognized extraction options. It is read
// only by the coordinator; callers build one with DefaultConfig and the
// With setters and may share it across a whole batch.
type ExtractionConfig struct {
	MaxTextLength          int
	UseMemoryMap           bool
	MemoryMapThreshold     int64
	ChunkSize              int
	EnableParallel         bool
	Workers                int // 0 means GOMAXPROCS
	ParserPreference       ParserPreference
	CharsetOverride        string // IANA label, "" means auto
	WordBoundaryTruncation bool
	NormalizeWhitespace    bool
}

func DefaultConfig() ExtractionConfig {
	return ExtractionConfig{
		MaxTextLength:      DefaultMaxTextLength,
		UseMemoryMap:       true,
		MemoryMapThreshold: DefaultMemoryMapThreshold,
		ChunkSize:          DefaultChunkSize,
		EnableParallel:     true,
		ParserPreference:   PreferNative,
	}
}

func (c ExtractionConfig) WithMaxTextLength(n int) ExtractionConfig {
	c.MaxTextLength = n
	return c
}

func (c ExtractionConfig) WithMemoryMap(enabled bool, threshold int64) ExtractionConfig {
	c.UseMemoryMap = enabled
	if threshold > 0 {
		c.MemoryMapThreshold = threshold
	}
	return c
}

func (c ExtractionConfig) WithChunkSize(n int) ExtractionConfig {
	c.ChunkSize = n
	return c
}

func (c ExtractionConfig) WithParallel(enabled bool, workers int) ExtractionConfig {
	c.EnableParallel = enabled
	c.Workers = workers
	return c
}

func (c ExtractionConfig) WithParserPreference(p ParserPreference) ExtractionConfig {
	c.ParserPreference = p
	return c
}

func (c ExtractionConfig) WithCharsetOverride(label string) ExtractionConfig {
	c.CharsetOverride = label
	return c
}

func (c ExtractionConfig) WithWordBoundaryTruncation(enabled bool) ExtractionConfig {
	c.WordBoundaryTruncation = enabled
	return c
}

func (c ExtractionConfig) WithNormalizeWhitespace(enabled bool) ExtractionConfig {
	c.NormalizeWhitespace = enabled
	return c
}

// Validate rejects configs no backend could honor. The charset label is
// resolved against the IANA registry so a typo fails here instead of deep
// inside a decode.
func (c ExtractionConfig) Validate() error {
	if c.MaxTextLength < 0 {
		return fmt.Errorf("max text length must be >= 0, got %d", c.MaxTextLength)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be >= 0, got %d", c.ChunkSize)
	}
	if c.CharsetOverride != "" {
		enc, err := ianaindex.IANA.Encoding(c.CharsetOverride)
		if err != nil || enc == nil {
			return fmt.Errorf("unknown charset %q", c.CharsetOverride)
		}
	}
	return nil
}

// Sanitized fills zero values with defaults so downstream code never
// branches on "unset".
func (c ExtractionConfig) Sanitized() ExtractionConfig {
	if c.MaxTextLength == 0 {
		c.MaxTextLength = DefaultMaxTextLength
	}
	if c.MemoryMapThreshold == 0 {
		c.MemoryMapThreshold = DefaultMemoryMapThreshold
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	return c
}

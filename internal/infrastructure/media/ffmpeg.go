package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Chunker splits a recording into fixed-length mono WAV chunks with ffmpeg
type Chunker struct {
	ffmpegPath   string
	chunkSeconds int
	sampleRate   int
}

// NewChunker creates a chunker; empty ffmpegPath means "ffmpeg" on PATH
func NewChunker(ffmpegPath string, chunkSeconds, sampleRate int) *Chunker {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Chunker{ffmpegPath: ffmpegPath, chunkSeconds: chunkSeconds, sampleRate: sampleRate}
}

// Args returns the ffmpeg arguments used to split input into outDir
func (c *Chunker) Args(input, outDir string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-ac", "1", "-ar", strconv.Itoa(c.sampleRate),
		"-f", "segment",
		"-segment_time", strconv.Itoa(c.chunkSeconds),
		"-c:a", "pcm_s16le",
		filepath.Join(outDir, "chunk_%04d.wav"),
	}
}

// Split writes the chunks into outDir and returns their paths in playback order
func (c *Chunker) Split(ctx context.Context, input, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.ffmpegPath, c.Args(input, outDir)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	chunks, err := filepath.Glob(filepath.Join(outDir, "chunk_*.wav"))
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no chunks for %s", filepath.Base(input))
	}
	// zero-padded names sort in playback order
	sort.Strings(chunks)
	return chunks, nil
}

package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Adapter struct {
	ffmpeg string
}

func New(ffmpegPath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{ffmpeg: ffmpegPath}
}

// Cut extracts the padded [startMs, endMs) window from sourcePath and
// returns it re-encoded as mp3. Output bytes stream through stdout into a
// single buffer, so chunk order is the process's write order. Errors carry
// ffmpeg's stderr and are recoverable per group.
func (a *Adapter) Cut(ctx context.Context, sourcePath string, startMs, endMs, paddingMs int64) ([]byte, error) {
	start, dur := window(startMs, endMs, paddingMs)

	cmd := exec.CommandContext(ctx, a.ffmpeg, cutArgs(sourcePath, start, dur)...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg cut [%d,%d)ms: %w\n%s", start, start+dur, err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}

// window applies padding on both sides, clamping the start at zero, and
// returns the padded start plus duration in milliseconds.
func window(startMs, endMs, paddingMs int64) (start, dur int64) {
	start = startMs - paddingMs
	if start < 0 {
		start = 0
	}
	end := endMs + paddingMs
	return start, end - start
}

func cutArgs(sourcePath string, startMs, durMs int64) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmtMillis(startMs),
		"-t", fmtMillis(durMs),
		"-i", sourcePath,
		"-vn",
		"-f", "mp3",
		"pipe:1",
	}
}

// fmtMillis renders milliseconds as fractional seconds for ffmpeg.
func fmtMillis(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64)
}

package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os/exec"
	"strings"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
)

// Browser user agents rotated per process; some extractors throttle the
// default yt-dlp agent.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 12_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.0.0",
}

type Adapter struct {
	bin       string
	subLang   string
	userAgent string
}

// New builds a yt-dlp adapter. An empty userAgent picks a random one from
// the pool for the life of the adapter; an empty subLang defaults to "ja".
func New(binPath, subLang, userAgent string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if subLang == "" {
		subLang = "ja"
	}
	if userAgent == "" {
		userAgent = userAgents[rand.Intn(len(userAgents))]
	}
	return &Adapter{bin: binPath, subLang: subLang, userAgent: userAgent}
}

// FetchAssets downloads the audio track as mp3 plus the subtitle track for
// the configured language, writing both under outTemplate (a yt-dlp output
// template like "content/<id>.%(ext)s"). A missing subtitle for the
// requested language is not an error here; the caller discovers that when
// the .vtt file is absent.
func (a *Adapter) FetchAssets(ctx context.Context, url, outTemplate string) error {
	if _, err := a.run(ctx, a.fetchArgs(url, outTemplate)); err != nil {
		return fmt.Errorf("yt-dlp download: %w", err)
	}
	return nil
}

// VideoInfo probes the video's metadata without downloading anything.
func (a *Adapter) VideoInfo(ctx context.Context, url string) (types.VideoInfo, error) {
	out, err := a.run(ctx, a.probeArgs(url))
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("yt-dlp probe: %w", err)
	}

	var info types.VideoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return types.VideoInfo{}, fmt.Errorf("parse video info: %w", err)
	}
	return info, nil
}

func (a *Adapter) fetchArgs(url, outTemplate string) []string {
	return []string{
		url,
		"--sub-langs", a.subLang,
		"--write-subs",
		"--extract-audio",
		"--audio-format", "mp3",
		"-o", outTemplate,
		"--user-agent", a.userAgent,
	}
}

func (a *Adapter) probeArgs(url string) []string {
	return []string{url, "-J", "--ignore-no-formats-error", "--user-agent", a.userAgent}
}

func (a *Adapter) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w\n%s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

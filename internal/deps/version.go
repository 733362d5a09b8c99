package deps

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// versionPattern matches the first dotted version in tool banners such as
// "ffmpeg version 6.1.1-3ubuntu5" or "Version: ImageMagick 7.1.1-29 Q16-HDRI".
var versionPattern = regexp.MustCompile(`\d+(\.\d+)+(-\d+)?`)

// FFmpegVersionArgs and MagickVersionArgs print each tool's banner.
var (
	FFmpegVersionArgs = []string{"-hide_banner", "-version"}
	MagickVersionArgs = []string{"-version"}
)

// queryVersion runs binary with args and extracts a version from the first
// line of output. It returns "" when the binary cannot be run quickly.
func queryVersion(binary string, args []string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return ""
	}
	return ParseVersion(string(out))
}

// ParseVersion extracts the version from the first line of a tool banner.
func ParseVersion(banner string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(banner), "\n")
	return versionPattern.FindString(line)
}

package metrics

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// probeTimeout bounds each external tool version probe
const probeTimeout = 5 * time.Second

// SystemInfo describes the host and the external tools downloads depend on
type SystemInfo struct {
	Hostname         string
	OS               string
	Arch             string
	CPULogical       int
	GoVersion        string
	InContainer      bool
	ContainerRuntime string

	// Empty when the tool could not be run
	YtDlpVersion  string
	FFmpegVersion string
}

// CaptureSystemInfo gathers host details and probes yt-dlp and ffmpeg
func CaptureSystemInfo(ctx context.Context, ytdlpPath, ffmpegPath string) *SystemInfo {
	info := &SystemInfo{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		CPULogical: runtime.NumCPU(),
		GoVersion:  runtime.Version(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	} else {
		info.Hostname = "unknown"
	}

	info.InContainer, info.ContainerRuntime = detectContainer()
	info.YtDlpVersion = toolVersion(ctx, ytdlpPath, "--version")
	info.FFmpegVersion = ffmpegVersion(toolVersion(ctx, ffmpegPath, "-version"))

	return info
}

// Missing lists the external tools that could not be run
func (i *SystemInfo) Missing() []string {
	var missing []string
	if i.YtDlpVersion == "" {
		missing = append(missing, "yt-dlp")
	}
	if i.FFmpegVersion == "" {
		missing = append(missing, "ffmpeg")
	}
	return missing
}

// LogArgs flattens the info into slog key/value pairs
func (i *SystemInfo) LogArgs() []any {
	return []any{
		"hostname", i.Hostname,
		"os", i.OS,
		"arch", i.Arch,
		"cpus", i.CPULogical,
		"go", i.GoVersion,
		"container", i.ContainerRuntime,
		"yt_dlp", i.YtDlpVersion,
		"ffmpeg", i.FFmpegVersion,
	}
}

// detectContainer checks if running in a container
func detectContainer() (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "docker"
	}

	if _, err := os.Stat("/var/run/secrets/kubernetes.io"); err == nil {
		return true, "kubernetes"
	}

	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		switch {
		case strings.Contains(content, "docker"):
			return true, "docker"
		case strings.Contains(content, "kubepods"):
			return true, "kubernetes"
		case strings.Contains(content, "containerd"):
			return true, "containerd"
		}
	}

	return false, ""
}

// toolVersion runs executable with args and returns the first output line
func toolVersion(ctx context.Context, executable string, args ...string) string {
	if executable == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, executable, args...).Output()
	if err != nil {
		return ""
	}
	return firstLine(string(out))
}

// ffmpegVersion reduces "ffmpeg version 6.1.1 Copyright ..." to "6.1.1"
func ffmpegVersion(banner string) string {
	fields := strings.Fields(banner)
	if len(fields) >= 3 && fields[1] == "version" {
		return fields[2]
	}
	return banner
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

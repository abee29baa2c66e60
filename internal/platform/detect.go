package platform

import "runtime"

// FFmpegInstallHint returns a short instruction for installing ffmpeg on goos.
func FFmpegInstallHint(goos string) string {
	switch goos {
	case "darwin":
		return "brew install ffmpeg"
	case "linux":
		return "install the ffmpeg package of your distribution, e.g. sudo apt install ffmpeg"
	case "windows":
		return "winget install ffmpeg"
	default:
		return "download a build from https://ffmpeg.org/download.html"
	}
}

func CurrentFFmpegInstallHint() string {
	return FFmpegInstallHint(runtime.GOOS)
}

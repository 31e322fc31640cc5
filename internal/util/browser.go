// Package util 进程级辅助函数
package util

import (
	"errors"
	"os/exec"
	"runtime"
)

// browserCommands 各平台打开地址的命令，按顺序尝试
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		return [][]string{
			{"xdg-open", url},
			{"sensible-browser", url},
			{"google-chrome", url},
			{"firefox", url},
			{"chromium-browser", url},
		}
	}
}

// OpenBrowser 用默认浏览器打开结果页
func OpenBrowser(url string) error {
	cmds := browserCommands(runtime.GOOS, url)
	return exec.Command(cmds[0][0], cmds[0][1:]...).Start()
}

// OpenBrowserWithFallback 依次尝试各平台的备选命令
func OpenBrowserWithFallback(url string) error {
	var errs []error
	for _, c := range browserCommands(runtime.GOOS, url) {
		err := exec.Command(c[0], c[1:]...).Start()
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Package browser implements the navigation ports by handing URLs to the
// operating system's default browser.
package browser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/cli/browser"

	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// ErrUnsupportedURL is returned for URLs that are not absolute http(s) URLs.
var ErrUnsupportedURL = errors.New("only absolute http and https URLs can be opened")

// Compile-time interface satisfaction checks.
var (
	_ driven.Navigator       = (*Navigator)(nil)
	_ driven.DashboardOpener = (*DashboardLauncher)(nil)
)

func init() {
	// The launcher's own output would corrupt the terminal UI.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// Navigator opens pull request URLs in the default browser.
type Navigator struct {
	open func(string) error
}

// NewNavigator creates a Navigator backed by github.com/cli/browser.
func NewNavigator() *Navigator {
	return &Navigator{open: browser.OpenURL}
}

// NewNavigatorWithOpener creates a Navigator with a custom launcher. This
// constructor is intended for testing.
func NewNavigatorWithOpener(open func(string) error) *Navigator {
	return &Navigator{open: open}
}

// Open validates rawURL and launches the browser on it.
func (n *Navigator) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("open %q: %w", rawURL, ErrUnsupportedURL)
	}

	if err := n.open(u.String()); err != nil {
		return fmt.Errorf("open %q: %w", rawURL, err)
	}
	slog.Debug("opened url in browser", "url", u.String())
	return nil
}

// DashboardLauncher opens the web dashboard served by this process.
type DashboardLauncher struct {
	navigator *Navigator
	url       string
}

// NewDashboardLauncher creates a launcher for the dashboard at dashboardURL.
func NewDashboardLauncher(navigator *Navigator, dashboardURL string) *DashboardLauncher {
	return &DashboardLauncher{navigator: navigator, url: dashboardURL}
}

// OpenDashboard opens the dashboard page in the browser.
func (l *DashboardLauncher) OpenDashboard() error {
	return l.navigator.Open(l.url)
}

// DashboardURL converts a listen address to the dashboard URL. Wildcard hosts
// are mapped to loopback so the browser has somewhere to connect.
func DashboardURL(listenAddr string) string {
	u := url.URL{Scheme: "http", Host: listenAddr, Path: "/"}
	host := u.Hostname()
	port := u.Port()
	if host == "" || host == "0.0.0.0" || host == "::" {
		u.Host = "127.0.0.1:" + port
	}
	return u.String()
}

// Package kiosk launches a full-screen browser showing the frame page.
//
// The browser is started as "<browser> --kiosk --incognito <url>" one
// second after [Launcher.Start], once the HTTP server is listening, and is
// killed by [Launcher.Stop] during shutdown.
package kiosk

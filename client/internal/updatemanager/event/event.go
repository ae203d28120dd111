package event

import (
	"fmt"
	"time"
)

// Name identifies an update manager event
type Name string

const (
	CheckingStarted  Name = "checking-started"
	UpdateAvailable  Name = "update-available"
	NotAvailable     Name = "not-available"
	DownloadProgress Name = "download-progress"
	DownloadComplete Name = "download-complete"
	RestartPrompt    Name = "restart-prompt"
	Error            Name = "error"
	MenuState        Name = "menu-state"
	Tooltip          Name = "tooltip"
	InstallResult    Name = "install-result"
)

// Menu is the state of the update entry in the host menu
type Menu string

const (
	MenuChecking  Menu = "checking"
	MenuAvailable Menu = "available"
	MenuNoUpdate  Menu = "no-update"
	MenuReady     Menu = "ready"
	MenuIdle      Menu = "idle"
)

type UpdateAvailablePayload struct {
	Version         string `json:"version"`
	BaselineVersion string `json:"baselineVersion"`
	Notes           string `json:"notes,omitempty"`
}

type DownloadProgressPayload struct {
	Percent         float64 `json:"percent"`
	DownloadedBytes int64   `json:"downloadedBytes"`
	// TotalBytes is 0 when the source did not announce the artifact size
	TotalBytes int64 `json:"totalBytes,omitempty"`
}

type VersionPayload struct {
	Version string `json:"version"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type MenuStatePayload struct {
	State Menu `json:"state"`
}

type TooltipPayload struct {
	Text string `json:"text"`
}

type InstallResultPayload struct {
	Success bool   `json:"success"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Event is a published update manager event
type Event struct {
	ID        string    `json:"id"`
	Name      Name      `json:"name"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Event) String() string {
	return fmt.Sprintf("%s %+v", e.Name, e.Payload)
}

// Sink receives update manager events. Implementations must not block.
type Sink interface {
	Emit(name Name, payload any)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(name Name, payload any)

func (f SinkFunc) Emit(name Name, payload any) {
	f(name, payload)
}

// Percent returns downloaded/total*100, or 0 when the total is unknown
func Percent(downloaded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(downloaded) / float64(total) * 100
}

// TooltipAvailable is shown when a newer release was found
func TooltipAvailable(version string) string {
	return fmt.Sprintf("Update %s available", version)
}

// TooltipDownloading is shown while the artifact is being downloaded
func TooltipDownloading(percent float64) string {
	return fmt.Sprintf("Downloading update: %.1f%%", percent)
}

// TooltipReady is shown once the artifact is cached and ready to install
const TooltipReady = "Update ready to install"

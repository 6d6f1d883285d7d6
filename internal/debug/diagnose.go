package debug

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// CheckStatus represents the result of a diagnostic check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds one diagnostic check outcome.
type CheckResult struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
}

// TunnelInfo holds runtime tunnel info for the report. The caller
// fills it from live reads; this package never touches the control
// plane itself.
type TunnelInfo struct {
	Name          string `json:"name"`
	Active        bool   `json:"active"`
	LinkPresent   bool   `json:"link_present"`
	ListenPort    int    `json:"listen_port"`
	LastHandshake string `json:"last_handshake,omitempty"`
	Transfer      string `json:"transfer,omitempty"`
}

// RuntimeWarning is a warning or error logged during this invocation,
// handed in by the caller from its log capture.
type RuntimeWarning struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// HistoryStats holds archive statistics for diagnostics.
type HistoryStats struct {
	Path       string `json:"path"`
	Accessible bool   `json:"accessible"`
	Records    int    `json:"records"`
}

// DiagnoseResult holds the complete diagnostic report.
type DiagnoseResult struct {
	Version   string        `json:"version"`
	GoVersion string        `json:"go_version"`
	OS        string        `json:"os"`
	Arch      string        `json:"arch"`
	Kernel    string        `json:"kernel"`
	Checks    []CheckResult    `json:"checks"`
	Tunnels   []TunnelInfo     `json:"tunnels"`
	History   HistoryStats     `json:"history"`
	Warnings  []RuntimeWarning `json:"warnings,omitempty"`
}

// Config holds dependencies for the doctor command.
type Config struct {
	Version     string
	TunnelDirs  []string
	WGQuickPath string
	HistoryPath string
	Tunnels     []TunnelInfo
	Warnings    []RuntimeWarning
	JSONOutput  bool
	Writer      io.Writer
}

// Run executes all diagnostic checks and writes output to the configured writer.
func Run(cfg Config) error {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	result := DiagnoseResult{
		Version:   cfg.Version,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Kernel:    DetectKernelVersion(),
		Tunnels:   cfg.Tunnels,
		Warnings:  cfg.Warnings,
	}

	result.Checks = runChecks(cfg)
	result.History = checkHistory(cfg.HistoryPath)

	if cfg.JSONOutput {
		enc := json.NewEncoder(cfg.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return writeTextReport(cfg.Writer, result)
}

func runChecks(cfg Config) []CheckResult {
	var checks []CheckResult

	checks = append(checks, checkWireGuardModule())
	checks = append(checks, checkWGQuick(cfg.WGQuickPath))
	checks = append(checks, checkCapability())
	checks = append(checks, checkTunnelDirs(cfg.TunnelDirs))
	if cfg.HistoryPath != "" {
		checks = append(checks, checkHistoryFile(cfg.HistoryPath))
	}

	return checks
}

func checkWireGuardModule() CheckResult {
	data, err := os.ReadFile("/proc/modules")
	if err != nil {
		kver := DetectKernelVersion()
		if kver != "unknown" {
			return CheckResult{StatusWarn, fmt.Sprintf("Cannot read /proc/modules, kernel: %s", kver)}
		}
		return CheckResult{StatusWarn, "Cannot determine WireGuard module status"}
	}
	if strings.Contains(string(data), "wireguard") {
		return CheckResult{StatusPass, "WireGuard kernel module loaded"}
	}
	// WireGuard is built in from kernel 5.6, no module needed.
	kver := DetectKernelVersion()
	parts := strings.SplitN(kver, ".", 3)
	if len(parts) >= 2 {
		major := 0
		minor := 0
		fmt.Sscanf(parts[0], "%d", &major)
		fmt.Sscanf(parts[1], "%d", &minor)
		if major > 5 || (major == 5 && minor >= 6) {
			return CheckResult{StatusPass, fmt.Sprintf("WireGuard built into kernel %s", kver)}
		}
	}
	return CheckResult{StatusFail, "WireGuard kernel module not loaded"}
}

func checkWGQuick(path string) CheckResult {
	if path == "" {
		path = "wg-quick"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return CheckResult{StatusFail, fmt.Sprintf("wg-quick not found (%s); install wireguard-tools", path)}
	}
	return CheckResult{StatusPass, fmt.Sprintf("wg-quick found at %s", resolved)}
}

func checkCapability() CheckResult {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return CheckResult{StatusWarn, "Cannot read process capabilities"}
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "CapEff:") {
			hexVal := strings.TrimSpace(strings.TrimPrefix(line, "CapEff:"))
			var caps uint64
			fmt.Sscanf(hexVal, "%x", &caps)

			// CAP_NET_ADMIN = 12
			if caps&(1<<12) != 0 {
				return CheckResult{StatusPass, "CAP_NET_ADMIN capability"}
			}
			return CheckResult{StatusFail, "CAP_NET_ADMIN capability missing; tunnel activation will fail"}
		}
	}

	return CheckResult{StatusWarn, "Cannot parse process capabilities"}
}

func checkTunnelDirs(dirs []string) CheckResult {
	if len(dirs) == 0 {
		return CheckResult{StatusFail, "No tunnel directories configured"}
	}
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := unix.Access(dir, unix.W_OK); err != nil {
			return CheckResult{StatusWarn, fmt.Sprintf("Tunnel directory %s exists but is not writable", dir)}
		}
		return CheckResult{StatusPass, fmt.Sprintf("Tunnel directory %s exists and writable", dir)}
	}
	return CheckResult{StatusFail, fmt.Sprintf("None of the tunnel directories exist: %s", strings.Join(dirs, ", "))}
}

func checkHistoryFile(path string) CheckResult {
	if _, err := os.Stat(path); err != nil {
		return CheckResult{StatusWarn, fmt.Sprintf("History archive %s not accessible", path)}
	}
	return CheckResult{StatusPass, fmt.Sprintf("History archive %s accessible", path)}
}

func checkHistory(path string) HistoryStats {
	stats := HistoryStats{Path: path}
	if path == "" {
		return stats
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return stats
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_log").Scan(&n); err != nil {
		return stats
	}
	stats.Accessible = true
	stats.Records = n
	return stats
}

// DetectKernelVersion returns the running kernel version string.
func DetectKernelVersion() string {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return "unknown"
	}
	fields := strings.Fields(string(data))
	if len(fields) >= 3 {
		return fields[2]
	}
	return "unknown"
}

func writeTextReport(w io.Writer, r DiagnoseResult) error {
	fmt.Fprintf(w, "\nwirewizard diagnostic report\n")
	fmt.Fprintf(w, "============================\n")
	fmt.Fprintf(w, "Version:     %s\n", r.Version)
	fmt.Fprintf(w, "Go:          %s\n", r.GoVersion)
	fmt.Fprintf(w, "OS:          %s/%s\n", r.OS, r.Arch)
	fmt.Fprintf(w, "Kernel:      %s\n", r.Kernel)
	fmt.Fprintf(w, "\n")

	for _, c := range r.Checks {
		fmt.Fprintf(w, "[%s] %s\n", c.Status, c.Message)
	}
	fmt.Fprintf(w, "\n")

	for _, tun := range r.Tunnels {
		state := "inactive"
		if tun.Active {
			state = "active"
		}
		fmt.Fprintf(w, "Tunnel %s:\n", tun.Name)
		fmt.Fprintf(w, "  State:       %s\n", state)
		if tun.Active {
			fmt.Fprintf(w, "  Listen port: %d\n", tun.ListenPort)
			if !tun.LinkPresent {
				fmt.Fprintf(w, "  [WARN] active but no kernel link present\n")
			}
		}
		if tun.LastHandshake != "" {
			fmt.Fprintf(w, "  Handshake:   %s\n", tun.LastHandshake)
		}
		if tun.Transfer != "" {
			fmt.Fprintf(w, "  Transfer:    %s\n", tun.Transfer)
		}
		fmt.Fprintf(w, "\n")
	}

	if r.History.Accessible {
		fmt.Fprintf(w, "History archive:\n")
		fmt.Fprintf(w, "  Path:     %s\n", r.History.Path)
		fmt.Fprintf(w, "  Records:  %d\n", r.History.Records)
		fmt.Fprintf(w, "\n")
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings logged during this run:\n")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [%s] %s %s\n",
				warn.Level, warn.Time.Format("15:04:05"), warn.Message)
		}
	}

	return nil
}

package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyAttemptID  = "attempt_id"
	KeyPackage    = "package"
	KeyVersion    = "version"
	KeyVersionReq = "version_req"
	KeySource     = "source"
	KeyURL        = "url"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyName       = "name"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRequestID  = "request_id"
	KeyRemoteAddr = "remote_addr"
	KeyCategory   = "category"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func AttemptID(id string) slog.Attr      { return slog.String(KeyAttemptID, id) }
func Package(name string) slog.Attr      { return slog.String(KeyPackage, name) }
func Version(v string) slog.Attr         { return slog.String(KeyVersion, v) }
func VersionReq(r string) slog.Attr      { return slog.String(KeyVersionReq, r) }
func Source(s string) slog.Attr          { return slog.String(KeySource, s) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Name(n string) slog.Attr            { return slog.String(KeyName, n) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr          { return slog.Int(KeyStatus, code) }
func RequestID(id string) slog.Attr      { return slog.String(KeyRequestID, id) }
func RemoteAddr(addr string) slog.Attr   { return slog.String(KeyRemoteAddr, addr) }
func Category(c string) slog.Attr        { return slog.String(KeyCategory, c) }
func Duration(d time.Duration) slog.Attr { return DurationMS(float64(d.Microseconds()) / 1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — shard lifecycle logging helper (zero-alloc on the
// success path)
//
// Purpose:
//   - Logs shard lifecycle events (create/open/close/compact) and CLI
//     diagnostics without introducing heap pressure on the common path.
//
// Notes:
//   - Avoids fmt.Sprintf; plain string concatenation, direct stderr write.
//   - Never called from Get/Put/Del — those stay on the hot path untouched.
//
// ⚠️ Cold paths only — lifecycle events and failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "os"

// Warn writes a prefixed warning line to stderr. If err is non-nil its
// message is appended; otherwise only the prefix is printed.
func Warn(prefix string, err error) {
	var msg string
	if err != nil {
		msg = prefix + ": " + err.Error() + "\n"
	} else {
		msg = prefix + "\n"
	}
	os.Stderr.WriteString(msg)
}

// Info writes a prefixed informational line to stderr.
func Info(prefix, message string) {
	os.Stderr.WriteString(prefix + ": " + message + "\n")
}

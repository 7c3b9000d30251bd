package notify

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmailList splits a comma separated list and keeps the addresses
// that look valid, in input order.
func ValidateEmailList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		addr := strings.TrimSpace(part)
		if addr != "" && emailPattern.MatchString(addr) {
			out = append(out, addr)
		}
	}
	return out
}

// InvalidEmails returns the non-empty entries of raw that fail validation.
func InvalidEmails(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		addr := strings.TrimSpace(part)
		if addr != "" && !emailPattern.MatchString(addr) {
			out = append(out, addr)
		}
	}
	return out
}

// ScheduledSubject is the subject of the recurring report email.
func ScheduledSubject(now time.Time) string {
	return DefaultSubject + " - " + now.Format("2006-01-02")
}

// ReportEmailHTML is the body of the recurring report email.
func ReportEmailHTML(now time.Time) string {
	return fmt.Sprintf(`<html>
<body>
  <h2>File Neglect Report</h2>
  <p>Please find the latest automated File Neglect Report attached.</p>
  <p><strong>Generated:</strong> %s</p>
  <p>This is an automated email from FilePulse.</p>
</body>
</html>
`, now.Format(time.DateTime))
}

// TestEmailHTML is the body of the configuration test email.
func TestEmailHTML() string {
	return `<html>
<body>
  <h2>Test Email - FilePulse</h2>
  <p>This is a test email from your FilePulse installation.</p>
  <p>If you received this email, your configuration is working correctly!</p>
</body>
</html>
`
}

package portal

import (
	"context"
	"fmt"
	"strings"
)

// logNotifier is the default Notifier; it prints the message instead
// of delivering it. Real delivery is wired in at the composition root.
type logNotifier struct {
	logger Logger
}

func (n logNotifier) Send(_ context.Context, recipient, subject, body string) error {
	logger := n.logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("notification", "to", recipient, "subject", subject)
	logger.Debug("notification body", "body", body)
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return logNotifier{}
	}
	return n
}

// ResetNotificationSubject is the subject line for reset messages
const ResetNotificationSubject = "Portal: Password Reset Request"

// ComposeResetNotification renders the reset message body with the
// link the recipient must follow
func ComposeResetNotification(user *User, linkBase, token string) string {
	link := fmt.Sprintf("%s?token=%s", strings.TrimRight(linkBase, "/"), token)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", user.FullName())
	b.WriteString("You have requested to reset your password.\n\n")
	fmt.Fprintf(&b, "Please follow this link to choose a new password:\n%s\n\n", link)
	b.WriteString("This link will expire in 60 minutes.\n\n")
	b.WriteString("If you did not request a password reset, please ignore this message.\n")

	return b.String()
}

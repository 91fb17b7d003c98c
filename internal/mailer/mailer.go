// Package mailer sends outbound email. All sends are best-effort: a
// delivery failure is logged by the caller and never rolls back domain
// state.
package mailer

import "log/slog"

// Mailer is the outbound email boundary.
type Mailer interface {
	// SendQueueReminder tells a waiting developer their app is still
	// queued after waitedHours.
	SendQueueReminder(to string, waitedHours int, inviteLink string) error

	// SendGroupMatched tells the members of a new group they were
	// matched.
	SendGroupMatched(to []string, groupNumber int64) error

	// SendGroupReady tells the members their group is full and testing
	// coordination can begin.
	SendGroupReady(to []string, groupNumber int64) error

	// SendTesterDecision tells a requester their tester claim was
	// accepted or rejected by the app owner.
	SendTesterDecision(to string, groupNumber int64, decision, ownerName, ownerEmail string) error

	// SendGroupComplete tells the members the mandatory testing period
	// finished.
	SendGroupComplete(to []string, groupNumber int64) error
}

// LogMailer is a no-op Mailer that records sends to the log. Used when
// SMTP is unconfigured, and in tests.
type LogMailer struct{}

var _ Mailer = LogMailer{}

func (LogMailer) SendQueueReminder(to string, waitedHours int, inviteLink string) error {
	slog.Info("mail skipped (smtp not configured)", "kind", "queue_reminder", "to", to, "waited_hours", waitedHours)
	return nil
}

func (LogMailer) SendGroupMatched(to []string, groupNumber int64) error {
	slog.Info("mail skipped (smtp not configured)", "kind", "group_matched", "recipients", len(to), "group_number", groupNumber)
	return nil
}

func (LogMailer) SendGroupReady(to []string, groupNumber int64) error {
	slog.Info("mail skipped (smtp not configured)", "kind", "group_ready", "recipients", len(to), "group_number", groupNumber)
	return nil
}

func (LogMailer) SendTesterDecision(to string, groupNumber int64, decision, ownerName, ownerEmail string) error {
	slog.Info("mail skipped (smtp not configured)", "kind", "tester_decision", "to", to, "decision", decision)
	return nil
}

func (LogMailer) SendGroupComplete(to []string, groupNumber int64) error {
	slog.Info("mail skipped (smtp not configured)", "kind", "group_complete", "recipients", len(to), "group_number", groupNumber)
	return nil
}

package matchmaker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/twentytesters/backend/internal/metrics"
	"github.com/twentytesters/backend/internal/models"
)

// reminderThreshold is one step of the queue reminder cadence.
// Thresholds are ordered, monotonically increasing in both hours and
// stage.
type reminderThreshold struct {
	Stage   int
	Hours   int
	Title   string
	Message string
}

var reminderThresholds = []reminderThreshold{
	{
		Stage: 1,
		Hours: 24,
		Title: "Still waiting for more testers",
		Message: "Your app is still in the matchmaking queue. Invite a few friends " +
			"so we can reach the minimum of five members faster.",
	},
	{
		Stage: 2,
		Hours: 48,
		Title: "Queue still waiting for a full group",
		Message: "We haven’t found enough testers yet. Your app remains queued " +
			"and we’ll notify you as soon as a group is ready.",
	},
}

// dispatchReminders walks the queue and sends at most one reminder per
// entry per pass: an entry advances straight to the highest threshold
// its wait time has crossed, skipping intermediate stages. Notification
// and email are best-effort; only the persisted stage advance gates the
// next reminder.
func (m *Matchmaker) dispatchReminders(ctx context.Context, entries []models.QueueEntry, now time.Time) {
	inviteLink := m.inviteLink

	for _, entry := range entries {
		waitingHours := now.Sub(time.Unix(entry.JoinedAt, 0)).Hours()

		var crossed *reminderThreshold
		for i := range reminderThresholds {
			t := &reminderThresholds[i]
			if waitingHours >= float64(t.Hours) && entry.ReminderStage < t.Stage {
				crossed = t
			}
		}
		if crossed == nil {
			continue
		}

		if err := m.store.CreateNotification(ctx, &models.Notification{
			UserID:    entry.UserID,
			Title:     crossed.Title,
			Message:   fmt.Sprintf("%s Share this link: %s", crossed.Message, inviteLink),
			CreatedAt: now.Unix(),
		}); err != nil {
			slog.Error("queue reminder notification failed", "entry_id", entry.ID, "error", err)
		}

		if entry.UserEmail != "" {
			if err := m.mailer.SendQueueReminder(entry.UserEmail, crossed.Hours, inviteLink); err != nil {
				slog.Warn("queue reminder email failed", "entry_id", entry.ID, "error", err)
			}
		}

		if err := m.store.AdvanceReminderStage(ctx, entry.ID, crossed.Stage, now.Unix()); err != nil {
			slog.Error("reminder stage advance failed", "entry_id", entry.ID, "error", err)
			continue
		}

		metrics.RemindersSent.WithLabelValues(strconv.Itoa(crossed.Stage)).Inc()
		slog.Info("queue reminder sent",
			"entry_id", entry.ID,
			"app_id", entry.AppID,
			"stage", crossed.Stage,
			"waiting_hours", int(waitingHours),
		)
	}
}

// Package models defines the core domain models for the tester community
// backend.
//
// The domain revolves around app developers who need peer testers:
//   - App: an app registered by a developer, with a target tester count
//   - QueueEntry: an app waiting in the matchmaking queue
//   - Group: a fixed-size cohort of developers testing each other's apps
//   - Request: a pairwise "I tested your app" claim awaiting confirmation
//   - Notification: the append-only inbox trail shown to users
//   - ScheduledJob: a persisted one-shot job (the delayed group completion)
//
// Relationships are expressed with ID strings rather than pointers to avoid
// circular references. Timestamps are Unix seconds.
package models

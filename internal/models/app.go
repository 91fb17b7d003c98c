package models

// App is an application registered by a developer who needs peer testers.
type App struct {
	// ID is the unique identifier for the app (UUID format).
	ID string `json:"id"`

	// UserID is the owning developer's user ID.
	UserID string `json:"userId"`

	// AppName is the human-readable app name.
	AppName string `json:"appName"`

	// PackageName is the store package identifier (e.g. com.example.app).
	PackageName string `json:"packageName"`

	// TargetTesterCount is how many testers the app needs in total.
	TargetTesterCount int `json:"targetTesterCount"`

	// FulfilledTesterCount is how many testers have already been
	// obtained through matched groups.
	FulfilledTesterCount int `json:"fulfilledTesterCount"`

	// CreatedAt is the Unix timestamp when the app was registered.
	CreatedAt int64 `json:"createdAt"`
}

// RemainingSlots returns how many tester slots the app still needs.
// Never negative.
func (a *App) RemainingSlots() int {
	remaining := a.TargetTesterCount - a.FulfilledTesterCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EnrichedApp is the typed projection of an app inside a group view.
// It carries the owner's identity and the viewing user's request state
// toward this app, so the presentation layer never re-derives them.
type EnrichedApp struct {
	App

	// OwnerName and OwnerEmail identify the developer who owns the app.
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`

	// RequestSent reports whether the viewing user has submitted a
	// tester request for this app in the group being viewed.
	RequestSent bool `json:"requestSent"`

	// RequestStatus is the status of that request, empty when none.
	RequestStatus RequestStatus `json:"requestStatus,omitempty"`
}

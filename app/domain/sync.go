package domain

import "context"

type ListenerState string

const (
	ListenerStateNotStarted ListenerState = "not_started"
	ListenerStateSubscribed ListenerState = "subscribed"
	ListenerStatePolling    ListenerState = "polling"
	ListenerStateApplying   ListenerState = "applying"
	ListenerStateStopped    ListenerState = "stopped"
	ListenerStateFailed     ListenerState = "failed"
)

type ListenerStatus struct {
	ReplicaID     string        `json:"replica_id"`
	Transport     string        `json:"transport"`
	Topic         string        `json:"topic"`
	State         ListenerState `json:"state"`
	Degraded      bool          `json:"degraded"`
	Received      int64         `json:"received"`
	Applied       int64         `json:"applied"`
	Dropped       int64         `json:"dropped"`
	ReceiveErrors int64         `json:"receive_errors"`
	LastError     string        `json:"last_error,omitempty"`
}

type ResyncResult struct {
	Seeded int `json:"seeded"`
}

type SyncService interface {
	Status(ctx context.Context) ListenerStatus
	Mirror(ctx context.Context) []MirrorEntry
	MirrorEntry(ctx context.Context, productID int64) (MirrorEntry, error)
	Resync(ctx context.Context) (ResyncResult, error)
	Watch(ctx context.Context) (<-chan ChangeEvent, func())
}

package signal

import "time"

// BaseSignal implements Signal and is embedded by concrete signal types.
type BaseSignal struct {
	signalType string
	userID     string
	timestamp  time.Time
	metadata   map[string]interface{}
	context    *UserContext
}

// NewBaseSignal creates a base signal. A nil metadata map is replaced with an empty one.
func NewBaseSignal(signalType, userID string, timestamp time.Time, metadata map[string]interface{}, context *UserContext) BaseSignal {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return BaseSignal{
		signalType: signalType,
		userID:     userID,
		timestamp:  timestamp,
		metadata:   metadata,
		context:    context,
	}
}

// Type implements Signal interface.
func (s *BaseSignal) Type() string {
	return s.signalType
}

// UserID implements Signal interface.
func (s *BaseSignal) UserID() string {
	return s.userID
}

// Timestamp implements Signal interface.
func (s *BaseSignal) Timestamp() time.Time {
	return s.timestamp
}

// Metadata implements Signal interface.
func (s *BaseSignal) Metadata() map[string]interface{} {
	return s.metadata
}

// Context implements Signal interface.
func (s *BaseSignal) Context() *UserContext {
	return s.context
}

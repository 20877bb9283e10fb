package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewStateMessage wraps a simulation snapshot
func NewStateMessage(snapshot interface{}) (*Message, error) {
	return NewMessage(TypeState, snapshot)
}

// NewEventMessage wraps a discrete game event
func NewEventMessage(event interface{}) (*Message, error) {
	return NewMessage(TypeEvent, event)
}

// NewAimMessage creates an aim update message
func NewAimMessage(x, y float64, valid bool) (*Message, error) {
	return NewMessage(TypeAim, AimData{X: x, Y: y, Valid: valid})
}

// NewTrackingMessage creates a tracking status message
func NewTrackingMessage(sessionID string, processed, dropped uint64, color *ColorData) (*Message, error) {
	return NewMessage(TypeTracking, TrackingData{
		SessionID: sessionID,
		Processed: processed,
		Dropped:   dropped,
		Enrolled:  color != nil,
		Color:     color,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetAimData extracts aim data from a message
func (m *Message) GetAimData() (*AimData, error) {
	var data AimData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTrackingData extracts tracking status from a message
func (m *Message) GetTrackingData() (*TrackingData, error) {
	var data TrackingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

package domain

// ConnStatus is the lifecycle state of a streaming price feed connection.
// The error state is terminal: it is only entered after the reconnect budget
// is exhausted and requires an explicit restart to leave.
type ConnStatus string

const (
	ConnDisconnected ConnStatus = "disconnected"
	ConnConnecting   ConnStatus = "connecting"
	ConnConnected    ConnStatus = "connected"
	ConnError        ConnStatus = "error"
)

// PriceDirection tags the direction of the most recent change of a feed key.
// Tags are transient and expire after a fixed display window.
type PriceDirection string

const (
	DirectionUp   PriceDirection = "up"
	DirectionDown PriceDirection = "down"
)

// PriceUpdate is one normalized (key, price) pair extracted from a feed
// message, whatever payload shape it arrived in.
type PriceUpdate struct {
	Key   string
	Price float64
}

// FeedSnapshot is the read-only published state of a feed connector. Maps are
// copies owned by the receiver; mutating them does not affect the connector.
type FeedSnapshot struct {
	Prices     map[string]float64
	Directions map[string]PriceDirection
	Status     ConnStatus
}

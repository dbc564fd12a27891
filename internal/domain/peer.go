package domain

// Peer is one signaling identity registered on a connection.
// No transport or lifecycle logic here.
type Peer struct {
	ID    PeerID
	House HouseID
	Key   *HouseKey
}

// NewPeer keeps an empty house key from being treated as a subscription.
func NewPeer(id PeerID, house HouseID, key *HouseKey) Peer {
	if key != nil && *key == "" {
		key = nil
	}
	return Peer{ID: id, House: house, Key: key}
}

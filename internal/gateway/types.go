package gateway

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Giveaway is one row of getAllGiveaways.
type Giveaway struct {
	ID               uint64
	Name             string
	Active           bool
	Completed        bool
	ParticipantCount uint64
	Winner           string
}

// IsOpen reports whether the giveaway accepts participants and draws.
func (g Giveaway) IsOpen() bool { return g.Active && !g.Completed }

// Participant is one entrant of a giveaway.
type Participant struct {
	Index  uint64
	Email  string
	HasWon bool
}

// Winner is the drawn entrant of a completed giveaway.
type Winner struct {
	Email string
	Index uint64
}

// Details is the per-giveaway snapshot from getGiveawayDetails.
type Details struct {
	Name              string
	Active            bool
	Completed         bool
	TotalParticipants uint64
	Winner            string
}

// VRFConfig is the contract's Chainlink VRF configuration.
type VRFConfig struct {
	Coordinator   common.Address
	SubID         *big.Int
	KeyHash       common.Hash
	GasLimit      uint32
	Confirmations uint16
}

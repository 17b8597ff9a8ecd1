package gateway

import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed multigiveaway.abi.json
var multiGiveawayABI string

// Contract method names.
const (
	methodCreateGiveaway       = "createGiveaway"
	methodSetGiveawayActive    = "setGiveawayActive"
	methodAddParticipant       = "addParticipant"
	methodBatchAddParticipants = "batchAddParticipants"
	methodDrawWinner           = "drawWinner"
	methodAddAdmin             = "addAdmin"
	methodRemoveAdmin          = "removeAdmin"
	methodSetKeyHash           = "setKeyHash"
	methodSetCallbackGasLimit  = "setCallbackGasLimit"
	methodSetSubscriptionID    = "setSubscriptionId"
	methodIsAdmin              = "isAdmin"
	methodGetContractOwner     = "getContractOwner"
	methodGetAllGiveaways      = "getAllGiveaways"
	methodGetAllParticipants   = "getAllParticipants"
	methodGetGiveawayWinner    = "getGiveawayWinner"
	methodGetGiveawayDetails   = "getGiveawayDetails"
	methodGetChainlinkConfig   = "getChainlinkConfig"
)

// ParsedABI returns the MultiGiveaway contract ABI.
func ParsedABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(multiGiveawayABI))
}

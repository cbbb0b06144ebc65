package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI fragments for the three contracts the portal drives. The bytecode is
// external and opaque; only call encoding and success/revert matter here.
const gameABIJSON = `[
	{"type":"function","name":"placeBet","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"withdrawFunds","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"getContractBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"BetPlaced","inputs":[{"name":"player","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"timestamp","type":"uint256","indexed":false}]}
]`

const votingABIJSON = `[
	{"type":"function","name":"voteYes","stateMutability":"nonpayable","inputs":[{"name":"proposalId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"voteNo","stateMutability":"nonpayable","inputs":[{"name":"proposalId","type":"uint256"}],"outputs":[]}
]`

const badgeABIJSON = `[
	{"type":"function","name":"claimBadge","stateMutability":"nonpayable","inputs":[{"name":"milestone","type":"uint256"}],"outputs":[]}
]`

var (
	gameABI   = mustParseABI(gameABIJSON)
	votingABI = mustParseABI(votingABIJSON)
	badgeABI  = mustParseABI(badgeABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded abi: %v", err))
	}
	return parsed
}

func PackPlaceBet() ([]byte, error) {
	return gameABI.Pack("placeBet")
}

func PackWithdrawFunds() ([]byte, error) {
	return gameABI.Pack("withdrawFunds")
}

func PackGetContractBalance() ([]byte, error) {
	return gameABI.Pack("getContractBalance")
}

func UnpackContractBalance(data []byte) (*big.Int, error) {
	values, err := gameABI.Unpack("getContractBalance", data)
	if err != nil {
		return nil, err
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balance type %T", values[0])
	}
	return balance, nil
}

func PackVote(yes bool, proposalIndex int64) ([]byte, error) {
	method := "voteYes"
	if !yes {
		method = "voteNo"
	}
	return votingABI.Pack(method, big.NewInt(proposalIndex))
}

func PackClaimBadge(milestone int64) ([]byte, error) {
	return badgeABI.Pack("claimBadge", big.NewInt(milestone))
}

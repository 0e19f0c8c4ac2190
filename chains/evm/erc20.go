package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ERC20ReadABI contains the read-only subset of the ERC20 ABI the supply
// aggregation needs
const ERC20ReadABI = `[
  {
    "type": "function",
    "name": "totalSupply",
    "inputs": [],
    "outputs": [{ "name": "", "type": "uint256", "internalType": "uint256" }],
    "stateMutability": "view"
  },
  {
    "type": "function",
    "name": "balanceOf",
    "inputs": [{ "name": "account", "type": "address", "internalType": "address" }],
    "outputs": [{ "name": "", "type": "uint256", "internalType": "uint256" }],
    "stateMutability": "view"
  },
  {
    "type": "function",
    "name": "decimals",
    "inputs": [],
    "outputs": [{ "name": "", "type": "uint8", "internalType": "uint8" }],
    "stateMutability": "view"
  }
]`

// ParseERC20ReadABI returns the parsed ERC20 read ABI
func ParseERC20ReadABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(ERC20ReadABI))
}

package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Asset describes a tradable token. Created when the sync feed first
// references its address and immutable afterwards.
type Asset struct {
	Address         common.Address `json:"address"`
	Symbol          string         `json:"symbol"`
	Decimals        uint8          `json:"decimals"`
	IsNativeWrapper bool           `json:"isNativeWrapper"`
}

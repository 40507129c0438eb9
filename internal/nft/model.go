package nft

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Chain identifies the network a token lives on.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
	ChainAbstract Chain = "abstract"
	ChainApeChain Chain = "apechain"
)

// Chains lists every supported chain in display order.
var Chains = []Chain{ChainEthereum, ChainSolana, ChainAbstract, ChainApeChain}

// ParseChain accepts the lowercase wire name of a chain.
func ParseChain(s string) (Chain, error) {
	c := Chain(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Chains, c) {
		return c, nil
	}
	return "", fmt.Errorf("unsupported blockchain: %s", s)
}

// Trait is one attribute pair from token metadata.
type Trait struct {
	TraitType string     `json:"trait_type"`
	Value     TraitValue `json:"value"`
}

// TraitValue holds a trait value that may arrive as a string or a number.
type TraitValue string

func (v *TraitValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = TraitValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*v = TraitValue(n.String())
		return nil
	}
	var x bool
	if err := json.Unmarshal(b, &x); err == nil {
		*v = TraitValue(strconv.FormatBool(x))
		return nil
	}
	if string(b) == "null" {
		*v = ""
		return nil
	}
	return fmt.Errorf("trait value: unsupported json %s", b)
}

func (v TraitValue) String() string { return string(v) }

// Token is a single owned collectible. Tokens are produced by the chain
// providers and treated as read-only afterwards.
type Token struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Image           string  `json:"image"`
	TokenID         string  `json:"tokenId"`
	ContractAddress string  `json:"contractAddress"`
	Chain           Chain   `json:"blockchain"`
	Attributes      []Trait `json:"attributes,omitempty"`
}

// DisplayName returns the token name or a generic fallback.
func (t Token) DisplayName() string {
	if strings.TrimSpace(t.Name) == "" {
		return "Untitled NFT"
	}
	return t.Name
}

// Collection groups tokens sharing a contract (or Solana collection mint).
type Collection struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ContractAddress string  `json:"contractAddress"`
	TokenCount      int     `json:"tokenCount"`
	FloorPrice      float64 `json:"floorPrice,omitempty"`
	Chain           Chain   `json:"blockchain"`
}

// Portfolio is the normalized result of a wallet lookup.
type Portfolio struct {
	Collections      []Collection `json:"collections"`
	NFTs             []Token      `json:"nfts"`
	TotalNFTs        int          `json:"totalNfts"`
	TransactionCount int          `json:"transactionCount"`
}

package chain

import (
	"context"
	"time"

	"github.com/youruser/nftview/internal/nft"
)

// Mock serves fixed fixtures for chains without an indexer integration yet.
type Mock struct {
	chain   nft.Chain
	latency time.Duration
}

func NewMock(chain nft.Chain, latency time.Duration) *Mock {
	return &Mock{chain: chain, latency: latency}
}

func (m *Mock) Chain() nft.Chain { return m.chain }

func (m *Mock) FetchNFTs(ctx context.Context, wallet string) (*nft.Portfolio, error) {
	if m.latency > 0 {
		t := time.NewTimer(m.latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	contract := "0x" + wallet[min(2, len(wallet)):min(42, len(wallet))]
	var (
		tok     nft.Token
		name    string
		collID  string
		txCount int
	)
	switch m.chain {
	case nft.ChainApeChain:
		tok = nft.Token{
			ID:          "apechain-nft-1",
			Name:        "Ape Society #123",
			Description: "A member of the exclusive Ape Society",
			Image:       "/ape-nft-digital-art.jpg",
			TokenID:     "123",
			Attributes: []nft.Trait{
				{TraitType: "Background", Value: "Jungle"},
				{TraitType: "Fur", Value: "Golden"},
				{TraitType: "Eyes", Value: "Laser"},
			},
		}
		name, collID, txCount = "Ape Society", "apechain-collection-1", 156
	default:
		tok = nft.Token{
			ID:          "abstract-nft-1",
			Name:        "Abstract Art #001",
			Description: "A unique piece of abstract digital art",
			Image:       "/abstract-digital-art-nft.png",
			TokenID:     "001",
			Attributes: []nft.Trait{
				{TraitType: "Style", Value: "Abstract"},
				{TraitType: "Rarity", Value: "Rare"},
			},
		}
		name, collID, txCount = "Abstract Art Collection", "abstract-collection-1", 42
	}
	tok.ContractAddress = contract
	tok.Chain = m.chain

	return &nft.Portfolio{
		Collections: []nft.Collection{{
			ID:              collID,
			Name:            name,
			ContractAddress: contract,
			TokenCount:      1,
			Chain:           m.chain,
		}},
		NFTs:             []nft.Token{tok},
		TotalNFTs:        1,
		TransactionCount: txCount,
	}, nil
}

package nft

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrouper_KeepsFirstSeenOrderAndContiguousTokens(t *testing.T) {
	g := NewGrouper()
	g.Add("0xb", "Bees", ChainEthereum, Token{ID: "b1"})
	g.Add("0xa", "Apes", ChainEthereum, Token{ID: "a1"})
	g.Add("0xb", "ignored", ChainEthereum, Token{ID: "b2"})

	p := g.Portfolio()
	require.Len(t, p.Collections, 2)
	assert.Equal(t, "Bees", p.Collections[0].Name)
	assert.Equal(t, 2, p.Collections[0].TokenCount)
	assert.Equal(t, "Apes", p.Collections[1].Name)

	ids := make([]string, len(p.NFTs))
	for i, tok := range p.NFTs {
		ids[i] = tok.ID
	}
	assert.Equal(t, []string{"b1", "b2", "a1"}, ids)
	assert.Equal(t, 3, p.TotalNFTs)
}

func TestGrouper_EmptyPortfolioEncodesArrays(t *testing.T) {
	b, err := json.Marshal(NewGrouper().Portfolio())
	require.NoError(t, err)
	assert.JSONEq(t, `{"collections":[],"nfts":[],"totalNfts":0,"transactionCount":0}`, string(b))
}

func TestFilterAndDedupe(t *testing.T) {
	tokens := []Token{
		{ID: "1", ContractAddress: "0xa"},
		{ID: "2", ContractAddress: "0xb"},
		{ID: "1", ContractAddress: "0xa", Name: "dup"},
	}
	assert.Len(t, FilterByCollection(tokens, "0xa"), 2)
	assert.Empty(t, FilterByCollection(tokens, "0xc"))

	d := Dedupe(tokens)
	require.Len(t, d, 2)
	assert.Empty(t, d[0].Name)
}

func TestTraitValue_AcceptsScalars(t *testing.T) {
	var traits []Trait
	require.NoError(t, json.Unmarshal([]byte(`[
		{"trait_type":"Fur","value":"Golden"},
		{"trait_type":"Level","value":5},
		{"trait_type":"Shiny","value":true}
	]`), &traits))
	require.Len(t, traits, 3)
	assert.Equal(t, "Golden", traits[0].Value.String())
	assert.Equal(t, "5", traits[1].Value.String())
	assert.Equal(t, "true", traits[2].Value.String())
}

func TestTokenDisplayName(t *testing.T) {
	assert.Equal(t, "Untitled NFT", Token{}.DisplayName())
	assert.Equal(t, "Ape", Token{Name: "Ape"}.DisplayName())
}

func TestGrouper_SetFloorPriceKeepsFirstPositive(t *testing.T) {
	g := NewGrouper()
	g.SetFloorPrice("0xa", 1) // unknown collection
	g.Add("0xa", "Apes", ChainEthereum, Token{ID: "a1"})
	g.SetFloorPrice("0xa", 0)
	g.SetFloorPrice("0xa", 0.5)
	g.SetFloorPrice("0xa", 0.9)

	p := g.Portfolio()
	require.Len(t, p.Collections, 1)
	assert.Equal(t, 0.5, p.Collections[0].FloorPrice)
}

func TestParseChain(t *testing.T) {
	for _, c := range Chains {
		got, err := ParseChain(" " + strings.ToUpper(string(c)) + " ")
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseChain("dogechain")
	assert.Error(t, err)
}

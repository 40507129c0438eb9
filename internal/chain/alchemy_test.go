package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/nftview/internal/nft"
)

const alchemyPage1 = `{
  "ownedNfts": [
    {
      "contract": {"address": "0xaaa0000000000000000000000000000000000001", "name": "Cool Cats", "openSeaMetadata": {"floorPrice": 0.42}},
      "tokenId": "7",
      "name": "Cool Cat #7",
      "description": "a cat",
      "image": {"cachedUrl": "https://cdn.example/7.png", "originalUrl": "ipfs://x/7.png"},
      "raw": {"metadata": {"attributes": [{"trait_type": "Hat", "value": "Cap"}, {"trait_type": "Level", "value": 3}]}}
    },
    {
      "contract": {"address": "0xbbb0000000000000000000000000000000000002"},
      "tokenId": "1",
      "image": {"originalUrl": "https://cdn.example/b1.png"}
    }
  ],
  "pageKey": "p2"
}`

const alchemyPage2 = `{
  "ownedNfts": [
    {
      "contract": {"address": "0xaaa0000000000000000000000000000000000001", "name": "Cool Cats"},
      "tokenId": "8",
      "name": "Cool Cat #8",
      "image": {"pngUrl": "https://cdn.example/8.png"}
    }
  ]
}`

type alchemyFake struct {
	page2Status int
	nftCalls    atomic.Int32
}

func (f *alchemyFake) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/test-key", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Method {
		case "eth_getTransactionCount":
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x2a"}`))
		case "alchemy_getAssetTransfers":
			var p map[string]any
			assert.NoError(t, json.Unmarshal(req.Params[0], &p))
			assert.Equal(t, "desc", p["order"])
			if p["pageKey"] == "next" {
				w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"transfers":[]}}`))
				return
			}
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"transfers":[
				{"hash":"0xh1","from":"0xme","to":"0xyou","value":1.5,"asset":"ETH","category":"external","blockNum":"0x10","metadata":{"blockTimestamp":"2024-01-01T00:00:00.000Z"}},
				{"hash":"0xh2","from":"0xme","to":"0xyou","value":null,"asset":"CATS","category":"erc721","blockNum":"0x0f","erc721TokenId":"0x07"}
			],"pageKey":"next"}}`))
		default:
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
		}
	})
	mux.HandleFunc("/nft/v3/test-key/getNFTsForOwner", func(w http.ResponseWriter, r *http.Request) {
		f.nftCalls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "0xwallet", q.Get("owner"))
		assert.Equal(t, "SPAM", q.Get("excludeFilters[]"))
		if q.Get("pageKey") == "p2" {
			if f.page2Status != 0 {
				w.WriteHeader(f.page2Status)
				w.Write([]byte(`{"error":"boom"}`))
				return
			}
			w.Write([]byte(alchemyPage2))
			return
		}
		w.Write([]byte(alchemyPage1))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAlchemy(srv *httptest.Server, key string) *Alchemy {
	return NewAlchemy(AlchemyConfig{
		APIKey:     key,
		RPCBaseURL: srv.URL + "/v2/",
		NFTBaseURL: srv.URL + "/nft/v3/",
		PageDelay:  time.Millisecond,
	})
}

func TestAlchemy_FetchNFTs(t *testing.T) {
	fake := &alchemyFake{}
	a := newTestAlchemy(fake.server(t), "test-key")

	p, err := a.FetchNFTs(context.Background(), "0xwallet")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.nftCalls.Load())
	assert.Equal(t, 42, p.TransactionCount)
	assert.Equal(t, 3, p.TotalNFTs)

	require.Len(t, p.Collections, 2)
	assert.Equal(t, "Cool Cats", p.Collections[0].Name)
	assert.Equal(t, 2, p.Collections[0].TokenCount)
	assert.Equal(t, "Collection 0xbbb000", p.Collections[1].Name)
	assert.InDelta(t, 0.42, p.Collections[0].FloorPrice, 1e-9)
	assert.Zero(t, p.Collections[1].FloorPrice)

	// tokens of a collection stay together, in first-seen collection order
	require.Len(t, p.NFTs, 3)
	assert.Equal(t, "0xaaa0000000000000000000000000000000000001-7", p.NFTs[0].ID)
	assert.Equal(t, "0xaaa0000000000000000000000000000000000001-8", p.NFTs[1].ID)
	assert.Equal(t, "https://cdn.example/8.png", p.NFTs[1].Image)
	assert.Equal(t, "Collection 0xbbb000 #1", p.NFTs[2].Name)
	assert.Equal(t, "https://cdn.example/b1.png", p.NFTs[2].Image)
	assert.Equal(t, nft.ChainEthereum, p.NFTs[2].Chain)

	first := p.NFTs[0]
	assert.Equal(t, "https://cdn.example/7.png", first.Image)
	require.Len(t, first.Attributes, 2)
	assert.Equal(t, nft.TraitValue("3"), first.Attributes[1].Value)
}

func TestAlchemy_PartialOnLaterPageFailure(t *testing.T) {
	fake := &alchemyFake{page2Status: http.StatusTooManyRequests}
	a := newTestAlchemy(fake.server(t), "test-key")

	p, err := a.FetchNFTs(context.Background(), "0xwallet")
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalNFTs)
	assert.Len(t, p.NFTs, 2)
}

func TestAlchemy_FirstPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	a := newTestAlchemy(srv, "test-key")

	_, err := a.FetchNFTs(context.Background(), "0xwallet")
	assert.Error(t, err)
}

func TestAlchemy_MissingKey(t *testing.T) {
	a := NewAlchemy(AlchemyConfig{})
	_, err := a.FetchNFTs(context.Background(), "0xwallet")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	_, err = a.ListTransfers(context.Background(), "0xwallet", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestAlchemy_ListTransfers(t *testing.T) {
	fake := &alchemyFake{}
	a := newTestAlchemy(fake.server(t), "test-key")

	page, err := a.ListTransfers(context.Background(), "0xme", "")
	require.NoError(t, err)
	assert.Equal(t, "next", page.PageKey)
	require.Len(t, page.Transfers, 2)
	require.NotNil(t, page.Transfers[0].Value)
	assert.Equal(t, 1.5, *page.Transfers[0].Value)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", page.Transfers[0].Timestamp)
	assert.Nil(t, page.Transfers[1].Value)
	assert.Equal(t, "0x07", page.Transfers[1].TokenID)

	page, err = a.ListTransfers(context.Background(), "0xme", "next")
	require.NoError(t, err)
	assert.Empty(t, page.Transfers)
	assert.Empty(t, page.PageKey)
}

package chain

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/observability"
	"github.com/youruser/nftview/internal/util"
)

const defaultHeliusURL = "https://mainnet.helius-rpc.com/"

type HeliusConfig struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Limit   int
	Logger  logrus.FieldLogger
}

// Helius serves Solana holdings through the DAS getAssetsByOwner call.
type Helius struct {
	cfg HeliusConfig
	log logrus.FieldLogger
}

func NewHelius(cfg HeliusConfig) *Helius {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultHeliusURL
	}
	if cfg.Client == nil {
		cfg.Client = util.NewHTTPClient(30 * time.Second)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 1000
	}
	log := cfg.Logger
	if log == nil {
		log = observability.Discard()
	}
	return &Helius{cfg: cfg, log: log.WithField("provider", "helius")}
}

func (h *Helius) Chain() nft.Chain { return nft.ChainSolana }

func (h *Helius) endpoint() (string, error) {
	u, err := url.Parse(h.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("api-key", h.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (h *Helius) FetchNFTs(ctx context.Context, wallet string) (*nft.Portfolio, error) {
	if h.cfg.APIKey == "" {
		return nil, fmt.Errorf("helius: %w", ErrMissingAPIKey)
	}
	endpoint, err := h.endpoint()
	if err != nil {
		return nil, err
	}
	body, err := util.PostJSON(ctx, h.cfg.Client, endpoint, map[string]any{
		"jsonrpc": "2.0",
		"id":      "nftview",
		"method":  "getAssetsByOwner",
		"params": map[string]any{
			"ownerAddress": wallet,
			"page":         1,
			"limit":        h.cfg.Limit,
			"displayOptions": map[string]any{
				"showFungible": false,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("helius getAssetsByOwner: %w", err)
	}
	res := gjson.ParseBytes(body)
	if err := rpcError("Helius", res); err != nil {
		return nil, err
	}
	items := res.Get("result.items").Array()
	h.log.WithFields(logrus.Fields{"wallet": wallet, "assets": len(items)}).Debug("assets received")

	return normalizeHelius(items), nil
}

func normalizeHelius(items []gjson.Result) *nft.Portfolio {
	g := nft.NewGrouper()
	for _, a := range items {
		switch a.Get("interface").String() {
		case "V1_NFT", "ProgrammableNFT":
		default:
			continue
		}
		id := a.Get("id").String()
		addr := firstNonEmpty(a.Get("grouping.0.group_value").String(), id)
		meta := a.Get("content.metadata")

		collection, _, _ := strings.Cut(meta.Get("name").String(), "#")
		collection = strings.TrimSpace(collection)
		if collection == "" {
			collection = "Unknown Collection"
		}
		name := meta.Get("name").String()
		if name == "" {
			name = "Unnamed NFT"
		}
		g.Add(addr, collection, nft.ChainSolana, nft.Token{
			ID:              id,
			Name:            name,
			Description:     meta.Get("description").String(),
			Image:           firstNonEmpty(a.Get("content.files.0.uri").String(), a.Get("content.links.image").String()),
			TokenID:         id[max(0, len(id)-8):],
			ContractAddress: addr,
			Chain:           nft.ChainSolana,
			Attributes:      parseTraits(meta.Get("attributes")),
		})
	}
	return g.Portfolio()
}

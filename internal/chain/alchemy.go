package chain

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/observability"
	"github.com/youruser/nftview/internal/util"
)

const (
	defaultAlchemyRPC = "https://eth-mainnet.g.alchemy.com/v2/"
	defaultAlchemyNFT = "https://eth-mainnet.g.alchemy.com/nft/v3/"
)

type AlchemyConfig struct {
	APIKey     string
	RPCBaseURL string
	NFTBaseURL string
	Client     *http.Client
	// MaxPages caps pagination; 10 pages of 100 is 1000 NFTs.
	MaxPages  int
	PageSize  int
	PageDelay time.Duration
	Logger    logrus.FieldLogger
}

// Alchemy serves Ethereum holdings and transfers.
type Alchemy struct {
	cfg     AlchemyConfig
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

func NewAlchemy(cfg AlchemyConfig) *Alchemy {
	if cfg.RPCBaseURL == "" {
		cfg.RPCBaseURL = defaultAlchemyRPC
	}
	if cfg.NFTBaseURL == "" {
		cfg.NFTBaseURL = defaultAlchemyNFT
	}
	if cfg.Client == nil {
		cfg.Client = util.NewHTTPClient(30 * time.Second)
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 100 * time.Millisecond
	}
	log := cfg.Logger
	if log == nil {
		log = observability.Discard()
	}
	return &Alchemy{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.PageDelay), 1),
		log:     log.WithField("provider", "alchemy"),
	}
}

func (a *Alchemy) Chain() nft.Chain { return nft.ChainEthereum }

func (a *Alchemy) rpcURL() string {
	return strings.TrimSuffix(a.cfg.RPCBaseURL, "/") + "/" + a.cfg.APIKey
}

func (a *Alchemy) rpc(ctx context.Context, method string, params any) (gjson.Result, error) {
	body, err := util.PostJSON(ctx, a.cfg.Client, a.rpcURL(), map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("alchemy %s: %w", method, err)
	}
	res := gjson.ParseBytes(body)
	if err := rpcError("Alchemy", res); err != nil {
		return gjson.Result{}, err
	}
	return res.Get("result"), nil
}

// TransactionCount returns the wallet nonce.
func (a *Alchemy) TransactionCount(ctx context.Context, wallet string) (int, error) {
	res, err := a.rpc(ctx, "eth_getTransactionCount", []any{wallet, "latest"})
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(res.String(), "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("alchemy: bad transaction count %q: %w", res.String(), err)
	}
	return int(n), nil
}

func (a *Alchemy) pageURL(wallet, pageKey string) string {
	q := url.Values{}
	q.Set("owner", wallet)
	q.Set("withMetadata", "true")
	q.Add("excludeFilters[]", "SPAM")
	q.Set("pageSize", strconv.Itoa(a.cfg.PageSize))
	if pageKey != "" {
		q.Set("pageKey", pageKey)
	}
	return strings.TrimSuffix(a.cfg.NFTBaseURL, "/") + "/" + a.cfg.APIKey + "/getNFTsForOwner?" + q.Encode()
}

// FetchNFTs pages through getNFTsForOwner. A page failure after the first
// returns what was fetched so far.
func (a *Alchemy) FetchNFTs(ctx context.Context, wallet string) (*nft.Portfolio, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("alchemy: %w", ErrMissingAPIKey)
	}
	log := a.log.WithField("wallet", wallet)

	txCount, err := a.TransactionCount(ctx, wallet)
	if err != nil {
		log.WithError(err).Warn("transaction count unavailable")
	}

	var owned []gjson.Result
	pageKey := ""
	for page := 0; page < a.cfg.MaxPages; page++ {
		if err := a.limiter.Wait(ctx); err != nil {
			if len(owned) > 0 {
				break
			}
			return nil, err
		}
		body, err := util.GetJSON(ctx, a.cfg.Client, a.pageURL(wallet, pageKey))
		if err != nil {
			if len(owned) > 0 {
				log.WithError(err).WithField("fetched", len(owned)).Warn("page failed, returning partial results")
				break
			}
			return nil, fmt.Errorf("alchemy getNFTsForOwner: %w", err)
		}
		res := gjson.ParseBytes(body)
		batch := res.Get("ownedNfts").Array()
		owned = append(owned, batch...)
		pageKey = res.Get("pageKey").String()
		log.WithFields(logrus.Fields{"page": page + 1, "batch": len(batch), "total": len(owned)}).Debug("page received")
		if pageKey == "" {
			break
		}
		if page+1 == a.cfg.MaxPages {
			log.Info("reached page limit, stopping pagination")
		}
	}

	p := normalizeAlchemy(owned)
	p.TotalNFTs = len(owned)
	p.TransactionCount = txCount
	return p, nil
}

func normalizeAlchemy(owned []gjson.Result) *nft.Portfolio {
	g := nft.NewGrouper()
	for _, n := range owned {
		addr := n.Get("contract.address").String()
		collection := n.Get("contract.name").String()
		if collection == "" {
			collection = "Collection " + prefix(addr, 8)
		}
		tokenID := n.Get("tokenId").String()
		name := n.Get("name").String()
		if name == "" {
			name = fmt.Sprintf("%s #%s", collection, tokenID)
		}
		attrs := n.Get("raw.metadata.attributes")
		if !attrs.IsArray() {
			attrs = n.Get("rawMetadata.attributes")
		}
		g.Add(addr, collection, nft.ChainEthereum, nft.Token{
			ID:              addr + "-" + tokenID,
			Name:            name,
			Description:     n.Get("description").String(),
			Image:           firstNonEmpty(n.Get("image.cachedUrl").String(), n.Get("image.originalUrl").String(), n.Get("image.pngUrl").String()),
			TokenID:         tokenID,
			ContractAddress: addr,
			Chain:           nft.ChainEthereum,
			Attributes:      parseTraits(attrs),
		})
		g.SetFloorPrice(addr, n.Get("contract.openSeaMetadata.floorPrice").Float())
	}
	return g.Portfolio()
}

// ListTransfers returns one page of outgoing transfers, newest first.
func (a *Alchemy) ListTransfers(ctx context.Context, wallet, pageKey string) (*TransferPage, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("alchemy: %w", ErrMissingAPIKey)
	}
	params := map[string]any{
		"fromBlock":    "0x0",
		"toBlock":      "latest",
		"fromAddress":  wallet,
		"category":     []string{"external", "erc721", "internal"},
		"withMetadata": true,
		"maxCount":     "0x3e8",
		"order":        "desc",
	}
	if pageKey != "" {
		params["pageKey"] = pageKey
	}
	res, err := a.rpc(ctx, "alchemy_getAssetTransfers", []any{params})
	if err != nil {
		return nil, err
	}

	page := &TransferPage{Transfers: []Transfer{}, PageKey: res.Get("pageKey").String()}
	res.Get("transfers").ForEach(func(_, t gjson.Result) bool {
		tr := Transfer{
			Hash:      t.Get("hash").String(),
			From:      t.Get("from").String(),
			To:        t.Get("to").String(),
			Asset:     t.Get("asset").String(),
			Category:  t.Get("category").String(),
			BlockNum:  t.Get("blockNum").String(),
			TokenID:   t.Get("erc721TokenId").String(),
			Timestamp: t.Get("metadata.blockTimestamp").String(),
		}
		if v := t.Get("value"); v.Type == gjson.Number {
			f := v.Float()
			tr.Value = &f
		}
		page.Transfers = append(page.Transfers, tr)
		return true
	})
	a.log.WithFields(logrus.Fields{"wallet": wallet, "count": len(page.Transfers)}).Debug("transfers received")
	return page, nil
}

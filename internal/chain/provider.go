// Package chain fetches wallet holdings from blockchain indexers and
// normalizes them into nft.Portfolio values.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/observability"
)

var (
	ErrUnsupportedChain = errors.New("unsupported blockchain")
	ErrMissingAPIKey    = errors.New("api key not configured")
)

// RPCError is a JSON-RPC error object returned by an indexer.
type RPCError struct {
	Provider string
	Code     int64
	Message  string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s API error: %s (code %d)", e.Provider, e.Message, e.Code)
}

// Provider fetches the NFTs owned by a wallet on one chain.
type Provider interface {
	Chain() nft.Chain
	FetchNFTs(ctx context.Context, wallet string) (*nft.Portfolio, error)
}

// TransferLister pages through a wallet's outgoing transfers.
type TransferLister interface {
	ListTransfers(ctx context.Context, wallet, pageKey string) (*TransferPage, error)
}

// Transfer is one asset movement.
type Transfer struct {
	Hash      string   `json:"hash"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Value     *float64 `json:"value"`
	Asset     string   `json:"asset"`
	Category  string   `json:"category"`
	BlockNum  string   `json:"blockNum"`
	TokenID   string   `json:"tokenId,omitempty"`
	Timestamp string   `json:"blockTimestamp,omitempty"`
}

// TransferPage is one page of transfers. PageKey is empty on the last page.
type TransferPage struct {
	Transfers []Transfer `json:"transfers"`
	PageKey   string     `json:"pageKey,omitempty"`
}

// Service routes lookups to the provider registered for each chain.
type Service struct {
	providers map[nft.Chain]Provider
	log       logrus.FieldLogger
}

func NewService(log logrus.FieldLogger, providers ...Provider) *Service {
	if log == nil {
		log = observability.Discard()
	}
	s := &Service{providers: map[nft.Chain]Provider{}, log: log}
	for _, p := range providers {
		s.providers[p.Chain()] = p
	}
	return s
}

// FetchNFTs looks up wallet on chain.
func (s *Service) FetchNFTs(ctx context.Context, wallet string, chain nft.Chain) (*nft.Portfolio, error) {
	p, ok := s.providers[chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}
	log := s.log.WithFields(logrus.Fields{"wallet": wallet, "blockchain": chain})
	log.Info("fetching NFTs")
	out, err := p.FetchNFTs(ctx, wallet)
	if err != nil {
		log.WithError(err).Error("fetch failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"collections": len(out.Collections),
		"nfts":        len(out.NFTs),
		"total":       out.TotalNFTs,
	}).Info("fetch completed")
	return out, nil
}

// ListTransfers pages through transfers for chains whose provider supports it.
func (s *Service) ListTransfers(ctx context.Context, wallet string, chain nft.Chain, pageKey string) (*TransferPage, error) {
	p, ok := s.providers[chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}
	tl, ok := p.(TransferLister)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}
	return tl.ListTransfers(ctx, wallet, pageKey)
}

func rpcError(provider string, res gjson.Result) error {
	e := res.Get("error")
	if !e.Exists() || e.Type == gjson.Null {
		return nil
	}
	return &RPCError{Provider: provider, Code: e.Get("code").Int(), Message: e.Get("message").String()}
}

func parseTraits(attrs gjson.Result) []nft.Trait {
	if !attrs.IsArray() {
		return nil
	}
	var out []nft.Trait
	attrs.ForEach(func(_, a gjson.Result) bool {
		out = append(out, nft.Trait{
			TraitType: a.Get("trait_type").String(),
			Value:     nft.TraitValue(a.Get("value").String()),
		})
		return true
	})
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

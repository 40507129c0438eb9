package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/youruser/nftview/internal/chain"
	imagepkg "github.com/youruser/nftview/internal/image"
	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/selection"
)

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps an error to a status and writes it.
func (s *Server) fail(c *gin.Context, err error) {
	var encErr *imagepkg.EncodingError
	switch {
	case errors.Is(err, imagepkg.ErrEmptySelection),
		errors.Is(err, imagepkg.ErrInvalidOptions),
		errors.Is(err, chain.ErrUnsupportedChain),
		errors.Is(err, selection.ErrEmptyID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &encErr):
		s.logger(c).WithError(err).Error("composition failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate output. Please try again."})
	default:
		s.logger(c).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type walletRequest struct {
	WalletAddress string `json:"walletAddress"`
	Blockchain    string `json:"blockchain"`
	PageKey       string `json:"pageKey"`
	// Collection optionally narrows an NFT lookup to one contract.
	Collection string `json:"collection"`
}

func bindWallet(c *gin.Context) (walletRequest, nft.Chain, bool) {
	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, "", false
	}
	if req.WalletAddress == "" || req.Blockchain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing walletAddress or blockchain"})
		return req, "", false
	}
	ch, err := nft.ParseChain(req.Blockchain)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported blockchain: " + req.Blockchain})
		return req, "", false
	}
	return req, ch, true
}

func (s *Server) nftsHandler(c *gin.Context) {
	req, ch, ok := bindWallet(c)
	if !ok {
		return
	}
	p, err := s.chains.FetchNFTs(c.Request.Context(), req.WalletAddress, ch)
	if err != nil {
		s.fail(c, err)
		return
	}
	if req.Collection != "" {
		p.NFTs = nft.FilterByCollection(p.NFTs, req.Collection)
		if p.NFTs == nil {
			p.NFTs = []nft.Token{}
		}
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) transactionsHandler(c *gin.Context) {
	req, ch, ok := bindWallet(c)
	if !ok {
		return
	}
	if ch != nft.ChainEthereum {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported blockchain: " + req.Blockchain})
		return
	}
	page, err := s.chains.ListTransfers(c.Request.Context(), req.WalletAddress, ch, req.PageKey)
	if err != nil {
		s.fail(c, err)
		return
	}
	var next *string
	if page.PageKey != "" {
		next = &page.PageKey
	}
	c.JSON(http.StatusOK, gin.H{"transfers": page.Transfers, "pageKey": next})
}

type selectedNFT struct {
	nft.Token
	TraitPreview string `json:"traitPreview,omitempty"`
}

func (s *Server) listSelection(c *gin.Context) {
	mode, err := imagepkg.ParseLayoutMode(c.Query("layout"))
	if err != nil {
		s.fail(c, err)
		return
	}
	tokens, err := s.store.List(c.Request.Context(), c.Param("session"))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]selectedNFT, len(tokens))
	for i, t := range tokens {
		out[i] = selectedNFT{Token: t, TraitPreview: imagepkg.FormatTraits(t.Attributes, mode)}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "nfts": out})
}

func (s *Server) addSelection(c *gin.Context) {
	var tok nft.Token
	if err := c.ShouldBindJSON(&tok); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, session := c.Request.Context(), c.Param("session")
	added, err := s.store.Add(ctx, session, tok)
	if err != nil {
		s.fail(c, err)
		return
	}
	n, err := s.store.Count(ctx, session)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "count": n})
}

func (s *Server) removeSelection(c *gin.Context) {
	ctx, session := c.Request.Context(), c.Param("session")
	removed, err := s.store.Remove(ctx, session, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	n, err := s.store.Count(ctx, session)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "count": n})
}

func (s *Server) clearSelection(c *gin.Context) {
	if err := s.store.Clear(c.Request.Context(), c.Param("session")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": 0})
}

// Request-level caps on composition size. The detailed layout grows one
// 740px band per token, so it gets a tighter limit.
const (
	maxComposeTokens  = 100
	maxDetailedTokens = 40
)

func checkTokenCount(n, limit int) error {
	if n > limit {
		return fmt.Errorf("%w: %d tokens exceeds the limit of %d", imagepkg.ErrInvalidOptions, n, limit)
	}
	return nil
}

// sanitizeLabel keeps a filename label to [A-Za-z0-9._-]; anything else becomes '-'.
func sanitizeLabel(label string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return '-'
	}, label)
	return strings.Trim(out, ".-")
}

// composeRequest carries either explicit tokens or a session whose selection is used.
type composeRequest struct {
	NFTs    []nft.Token     `json:"nfts"`
	Session string          `json:"session"`
	Layout  string          `json:"layout"`
	Label   string          `json:"label"`
	Options json.RawMessage `json:"options"`
}

func (s *Server) bindCompose(c *gin.Context) (composeRequest, []nft.Token, bool) {
	var req composeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, nil, false
	}
	tokens := req.NFTs
	if len(tokens) == 0 && req.Session != "" {
		var err error
		tokens, err = s.store.List(c.Request.Context(), req.Session)
		if err != nil {
			s.fail(c, err)
			return req, nil, false
		}
	}
	return req, nft.Dedupe(tokens), true
}

// overlay decodes raw on top of dst so absent fields keep their defaults.
func overlay(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", imagepkg.ErrInvalidOptions, err)
	}
	return nil
}

func (s *Server) writeArtifact(c *gin.Context, art *imagepkg.Artifact, label, layout string) {
	name := art.Filename(sanitizeLabel(label), layout, s.now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("X-Frame-Count", strconv.Itoa(art.Frames))
	c.Data(http.StatusOK, art.MIMEType, art.Data)
}

func (s *Server) composeImageHandler(c *gin.Context) {
	req, tokens, ok := s.bindCompose(c)
	if !ok {
		return
	}
	mode, err := imagepkg.ParseLayoutMode(req.Layout)
	if err != nil {
		s.fail(c, err)
		return
	}
	limit := maxComposeTokens
	if mode == imagepkg.LayoutDetailed {
		limit = maxDetailedTokens
	}
	if err := checkTokenCount(len(tokens), limit); err != nil {
		s.fail(c, err)
		return
	}
	opts := imagepkg.DefaultRenderOptions(mode)
	if err := overlay(req.Options, &opts); err != nil {
		s.fail(c, err)
		return
	}
	art, err := s.composer.ComposeStatic(c.Request.Context(), tokens, mode, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeArtifact(c, art, req.Label, mode.String())
}

func (s *Server) composeAnimationHandler(c *gin.Context) {
	req, tokens, ok := s.bindCompose(c)
	if !ok {
		return
	}
	if err := checkTokenCount(len(tokens), maxComposeTokens); err != nil {
		s.fail(c, err)
		return
	}
	opts := imagepkg.DefaultAnimationOptions()
	if err := overlay(req.Options, &opts); err != nil {
		s.fail(c, err)
		return
	}
	art, err := s.composer.ComposeAnimation(c.Request.Context(), tokens, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeArtifact(c, art, req.Label, "animated")
}

// qr endpoint returns a PNG of a QR for "text" query param
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing text"})
		return
	}
	size := 400
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		size = v
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

package nft

// Grouper accumulates tokens into collections in first-seen order.
type Grouper struct {
	order  []string
	groups map[string]*group
}

type group struct {
	collection Collection
	tokens     []Token
}

func NewGrouper() *Grouper {
	return &Grouper{groups: map[string]*group{}}
}

// Add files tok under the collection keyed by addr, creating the collection
// with the given name on first sight.
func (g *Grouper) Add(addr, name string, chain Chain, tok Token) {
	grp, ok := g.groups[addr]
	if !ok {
		grp = &group{collection: Collection{
			ID:              addr,
			Name:            name,
			ContractAddress: addr,
			Chain:           chain,
		}}
		g.groups[addr] = grp
		g.order = append(g.order, addr)
	}
	grp.collection.TokenCount++
	grp.tokens = append(grp.tokens, tok)
}

// SetFloorPrice records a collection's floor the first time a positive one is seen.
func (g *Grouper) SetFloorPrice(addr string, price float64) {
	grp, ok := g.groups[addr]
	if !ok || price <= 0 || grp.collection.FloorPrice > 0 {
		return
	}
	grp.collection.FloorPrice = price
}

// Portfolio flattens the groups. Tokens of one collection stay contiguous.
func (g *Grouper) Portfolio() *Portfolio {
	p := &Portfolio{Collections: []Collection{}, NFTs: []Token{}}
	for _, addr := range g.order {
		grp := g.groups[addr]
		p.Collections = append(p.Collections, grp.collection)
		p.NFTs = append(p.NFTs, grp.tokens...)
	}
	p.TotalNFTs = len(p.NFTs)
	return p
}

// FilterByCollection returns the tokens minted by the given contract.
func FilterByCollection(tokens []Token, contract string) []Token {
	var out []Token
	for _, t := range tokens {
		if t.ContractAddress == contract {
			out = append(out, t)
		}
	}
	return out
}

// Dedupe keeps the first token for each ID, preserving order.
func Dedupe(tokens []Token) []Token {
	seen := make(map[string]bool, len(tokens))
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

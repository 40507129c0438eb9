package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/youruser/nftview/internal/chain"
	imagepkg "github.com/youruser/nftview/internal/image"
	"github.com/youruser/nftview/internal/observability"
	"github.com/youruser/nftview/internal/selection"
)

// Server wires the HTTP surface to the chain service, selection store and composer.
type Server struct {
	chains   *chain.Service
	store    *selection.Store
	composer *imagepkg.Composer
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewServer(chains *chain.Service, store *selection.Store, composer *imagepkg.Composer, log logrus.FieldLogger) *Server {
	if log == nil {
		log = observability.Discard()
	}
	return &Server{chains: chains, store: store, composer: composer, log: log, now: time.Now}
}

// Router builds a gin engine with logging, metrics and recovery.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), requestLogger(s.log), gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.POST("/nfts", s.nftsHandler)
		api.POST("/transactions", s.transactionsHandler)

		api.GET("/selection/:session", s.listSelection)
		api.POST("/selection/:session", s.addSelection)
		api.DELETE("/selection/:session", s.clearSelection)
		api.DELETE("/selection/:session/:id", s.removeSelection)

		api.POST("/compose/image", s.composeImageHandler)
		api.POST("/compose/animation", s.composeAnimationHandler)
		api.GET("/qr", qrHandler)
	}
}

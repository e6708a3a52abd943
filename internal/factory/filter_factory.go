package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/adapters/filter"
	"github.com/mikey/spam-guardian/internal/adapters/web"
	"github.com/mikey/spam-guardian/internal/config"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/ports"
	"github.com/mikey/spam-guardian/internal/whitelist"
)

// FilterFactory creates the network front ends based on configuration
type FilterFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger) *FilterFactory {
	return &FilterFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateWebServer creates the HTTP UI and API server
func (f *FilterFactory) CreateWebServer(handler *web.Handler) (*web.Server, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, err
	}
	return web.NewServer(handler, serverCfg, f.logger)
}

// CreateListeners returns the web server plus the SMTP filter when it is enabled
func (f *FilterFactory) CreateListeners(
	server *web.Server,
	classifier core.Classifier,
	normalizer core.Normalizer,
) ([]ports.Listener, error) {
	listeners := []ports.Listener{server}

	smtpCfg, err := f.cfg.GetSMTP()
	if err != nil {
		return nil, err
	}
	if !smtpCfg.Enabled {
		return listeners, nil
	}

	checker := whitelist.NewChecker(smtpCfg.WhitelistedDomains, f.logger)
	return append(listeners, filter.NewSMTPFilter(classifier, normalizer, checker, smtpCfg, f.logger)), nil
}

package main

import (
	"go.uber.org/zap"

	"github.com/blake-leads/enrich-cli/internal/browser"
	"github.com/blake-leads/enrich-cli/internal/config"
	"github.com/blake-leads/enrich-cli/internal/formula"
	"github.com/blake-leads/enrich-cli/internal/phones"
	"github.com/blake-leads/enrich-cli/internal/pipeline"
	"github.com/blake-leads/enrich-cli/internal/proxy"
	"github.com/blake-leads/enrich-cli/internal/workspace"
	"github.com/blake-leads/enrich-cli/pkg/anthropic"
)

// env holds the long-lived services a command needs.
type env struct {
	Pipeline  *pipeline.Pipeline
	Workspace *workspace.Manager
}

// initPipeline wires the service graph from configuration. Missing
// credentials degrade features instead of failing: no Anthropic key means
// heuristic format inference, no classifier URL means area-code labels.
func initPipeline() (*env, error) {
	pool, err := proxy.ParsePool(config.ProxyList())
	if err != nil {
		return nil, err
	}
	if pool.Empty() {
		zap.L().Warn("no proxies configured, scraping directly")
	} else {
		zap.L().Info("proxy pool loaded", zap.Int("proxies", pool.Size()))
	}

	var inferrer formula.Inferrer
	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		inferrer = formula.NewAnthropicInferrer(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	} else {
		zap.L().Warn("no anthropic key, using heuristic format inference")
	}

	var classifier phones.Classifier
	if cfg.Classifier.URL != "" {
		classifier = phones.NewRemoteClassifier(cfg.Classifier)
	}

	factory := browser.NewFactory(cfg.Browser, pool)
	ws := workspace.NewManager(cfg.Workspace)

	return &env{
		Pipeline:  pipeline.New(cfg, ws, inferrer, factory, classifier),
		Workspace: ws,
	}, nil
}

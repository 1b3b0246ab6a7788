package application

import "configurator-shopify-layer/internal/ports"

type nopMetrics struct{}

func (nopMetrics) CartBuilt(string, int)    {}
func (nopMetrics) SizesSkipped(int)         {}
func (nopMetrics) DesignSaved(string)       {}
func (nopMetrics) DesignLoaded(string)      {}
func (nopMetrics) ProxyRequest(string, int) {}
func (nopMetrics) WebhookReceived(string)   {}

func metricsOrNop(m ports.Metrics) ports.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

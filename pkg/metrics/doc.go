/*
Package metrics provides Prometheus metrics for Storefront.

All metrics are defined as package-level collectors, registered with the
default registry at init, and exposed through Handler() on /metrics.
Components update them directly; no collector loop runs in the
background except the store gauge refresh driven by the API server.

# Metrics Catalog

Store metrics:

storefront_stores_total{status}:
  - Type: Gauge
  - Description: Stores by lifecycle status
  - Example: storefront_stores_total{status="ready"} 4

storefront_operations_in_flight:
  - Type: Gauge
  - Description: Stores currently holding the operation lock

Provisioning metrics:

storefront_provisions_total{outcome}:
  - Type: Counter
  - Labels: outcome is one of ready, failed, timeout

storefront_provision_duration_seconds:
  - Type: Histogram
  - Description: Provision start to ready, buckets sized for minutes-long
    chart installs rather than request latency

storefront_deletes_total{outcome}:
  - Type: Counter
  - Labels: outcome is one of deleted, failed

storefront_uninstall_failures_total:
  - Type: Counter
  - Description: Helm uninstall errors tolerated during deletion. The
    delete still proceeds through namespace removal, so a rising value
    here with successful deletes means releases are leaking state in
    Helm's records.

Recovery metrics:

storefront_recoveries_total{resolution}:
  - Type: Counter
  - Labels: resolution is marked_ready or marked_failed

API metrics:

storefront_api_requests_total{method, status} and
storefront_api_request_duration_seconds{method} follow the usual
request-instrumentation shape. storefront_rate_limit_rejections_total
{limiter} counts 429s per limiter (general or create).

# Usage

	timer := metrics.NewTimer()
	// ... run the provision ...
	timer.ObserveDuration(metrics.ProvisionDuration)
	metrics.ProvisionsTotal.WithLabelValues("ready").Inc()

Label cardinality is bounded by design: statuses, outcomes, and HTTP
methods only. Store ids never appear as label values.
*/
package metrics

/*
Package api is the REST surface of the Storefront control plane.

The API is deliberately thin: handlers validate input, enforce the
state-machine guards, mutate the registry, schedule background work on
the provisioner, and return immediately. No handler waits for the
cluster.

# Routes

Everything lives under /api:

	GET    /api/health              liveness, environment, timestamp
	GET    /api/stores              all stores, newest first
	POST   /api/stores              create, 201 with status queued
	GET    /api/stores/{id}         one store
	DELETE /api/stores/{id}         202, background delete
	POST   /api/stores/{id}/retry   202, re-provision a failed store
	GET    /api/stores/{id}/audit   audit trail for one store
	GET    /api/audit?limit=N       global audit, N clamped to [1,500]
	GET    /api/metrics             JSON operational summary

Prometheus exposition is at /metrics, outside the rate-limited group.

# Errors

Every error response is the envelope

	{"error": {"code": "<CODE>", "message": "<text>"}}

with a stable code. Operational errors (validation, guards, quota, rate
limit) are produced by handlers; panics are turned into
INTERNAL_SERVER_ERROR by the recovery middleware, with the message and
stack included only outside production.

# Rate Limiting

Two per-IP token buckets: a general one over all /api routes and a
stricter one for store creation. The budget is consumed only when a
request succeeds (skip-failed), so error responses never count toward
the limit.
*/
package api

/*
Package engine models e-commerce stacks as pluggable strategies.

An Engine knows everything stack-specific about provisioning a store: which
chart to install, what values to feed it, what the public URLs look like,
and whether the engine is currently available at all. The rest of the
control plane is engine-agnostic and talks only to the Engine interface.

# Engines

  - woocommerce: WordPress + WooCommerce + MySQL behind an nginx ingress.
    Generally available.
  - medusa: registered so the tag validates as a known engine, but
    Validate reports it unavailable (surfaced as ENGINE_UNAVAILABLE).

# Secrets

Database and admin passwords are drawn from crypto/rand, base64url-encoded
and truncated (16 chars for MySQL, 12 for the admin user). They are
generated fresh on every Values call and handed to the chart; the control
plane never persists them.

# Chart Contract

The readiness rule (at least one long-running pod must exist before a
namespace can be called ready) is part of each engine's chart contract: an
engine whose chart runs only one-shot jobs would never satisfy it.

Adding an engine is one implementation plus one Register call in
cmd/storefront.
*/
package engine

// Package providers defines the scoring-provider capability consumed by the
// pipeline's node handlers, plus the OpenRouter-backed implementation used in
// production.
//
// A provider can extract structured data from raw document text and score a
// packed representation against a job spec. Providers are treated as
// stateless, idempotent-enough-to-retry services: a retry re-asks the same
// question and nothing more. Node handlers never talk to vendor APIs
// directly; they hold a Client and let configuration choose the vendor.
package providers

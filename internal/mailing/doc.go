// Package mailing implements the outbound email pipeline: Liquid template
// rendering with per-lead personalization, the branded HTML envelope,
// open/click tracking injection, and the batched dispatcher that pushes
// campaigns through a delivery transport.
package mailing

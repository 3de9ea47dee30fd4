//go:build !noevm

package core

// FEATURE_EVM builds in the 281x event-manager compare pairs. Build with
// the noevm tag for 280x parts.
const FEATURE_EVM = true

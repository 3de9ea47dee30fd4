//go:build noevm

package core

const FEATURE_EVM = false

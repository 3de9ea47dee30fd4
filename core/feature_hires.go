//go:build !nohires

package core

// Modules PWM1..PWM4 carry the micro edge positioning extension. The
// nohires tag builds for parts without it.
const PWM_HIRES_MODULES = 4

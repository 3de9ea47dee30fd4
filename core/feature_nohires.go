//go:build nohires

package core

const PWM_HIRES_MODULES = 0

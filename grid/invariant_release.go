//go:build !griddebug

package grid

const debugInvariants = false

//go:build griddebug

package grid

const debugInvariants = true

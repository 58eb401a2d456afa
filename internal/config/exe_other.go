//go:build !windows

package config

const exeSuffix = ""

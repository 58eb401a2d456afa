package config

const exeSuffix = ".exe"

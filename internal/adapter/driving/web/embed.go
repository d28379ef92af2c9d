package web

import "embed"

// StaticFS holds the dashboard's script and stylesheet.
//
//go:embed static/*
var StaticFS embed.FS

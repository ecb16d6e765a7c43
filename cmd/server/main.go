// Package main runs the Shortin web front end.
//
//	@title			Shortin URL Shortener API
//	@version		1.0
//	@description	Web front end and JSON proxy for the Shortin link API
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http https
package main

import (
	"go.uber.org/fx"

	_ "github.com/sp3dr4/shortin/docs"
	shortinFX "github.com/sp3dr4/shortin/internal/fx"
)

func main() {
	fx.New(shortinFX.HTTPServerModules).Run()
}

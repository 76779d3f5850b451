package main

import (
	"cms-backend/internal/cli"
	"cms-backend/internal/config"
)

func main() {
	root := cli.NewRootCmd(config.ServiceContents, "CMS content service: articles with author enrichment", SetupRouter)
	cli.Execute(root)
}

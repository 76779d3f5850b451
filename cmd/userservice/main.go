package main

import (
	"cms-backend/internal/cli"
	"cms-backend/internal/config"
)

func main() {
	root := cli.NewRootCmd(config.ServiceUsers, "CMS user service: accounts, login and user briefs", SetupRouter)
	root.AddCommand(newTokenCmd())
	cli.Execute(root)
}

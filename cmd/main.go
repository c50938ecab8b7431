package main

import (
	"github.com/phoebezhou222/AllerGEN-AI/config"
	"github.com/phoebezhou222/AllerGEN-AI/routes"
	"github.com/phoebezhou222/AllerGEN-AI/utils"
)

func main() {
	config.InitLogger()
	config.InitDB()
	utils.InitS3()

	r := routes.SetupRouter()
	if err := r.Run(":8080"); err != nil {
		config.Log.Fatalw("server exited", "error", err)
	}
}

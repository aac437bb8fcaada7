package banner

import "fmt"

const Version = "1.0.0"

func Print() {
	banner := `
   _____            __  _            __
  / ___/___  ____  / /_(_)___  ___  / /
  \__ \/ _ \/ __ \/ __/ / __ \/ _ \/ /
 ___/ /  __/ / / / /_/ / / / /  __/ /
/____/\___/_/ /_/\__/_/_/ /_/\___/_/
            v%s - Pipeline Alert Engine
    `
	fmt.Printf(banner, Version)
	fmt.Println("\n------------------------------------------------")
}

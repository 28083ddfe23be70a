package main

import (
	"github.com/pixelvide/resume-mailer/pkg/root"

	_ "github.com/pixelvide/resume-mailer/pkg/console" // Register commands
)

func main() {
	root.Execute()
}

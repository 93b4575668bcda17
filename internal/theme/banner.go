package theme

import (
	"fmt"
)

// Banner returns the coinit banner shown by init and help.
func Banner() string {
	const green = "\033[32m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		green + "      ,_  ,_\n" + reset +
		green + "     (  \\/  )   " + reset + yellow + "coinit" + reset + "\n" +
		green + "      \\    /    " + reset + "cast -> mint -> token\n" +
		green + "   ____\\__/____\n" + reset +
		yellow + "  ( o  base  o )\n" + reset +
		yellow + "   `----------'\n" + reset
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}

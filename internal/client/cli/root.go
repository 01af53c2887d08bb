package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

// Root greets the user, offers an immediate login, and runs the REPL over
// stdin until exit or EOF.
func (a *App) Root(ctx context.Context) {
	fmt.Println("DriveOps CLI (type 'help' for commands)")

	if err := a.Login(ctx); err != nil {
		fmt.Println("Error:", err.Error())
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

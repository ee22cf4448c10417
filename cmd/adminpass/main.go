// Command adminpass prints a bcrypt hash for ADMIN_PASSWORD_HASH.  The
// password is read from the first argument or, if absent, from stdin.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/LytheanSem/emotionwork-sub001/internal/utils"
)

func main() {
	var pw string
	if len(os.Args) > 1 {
		pw = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read password: %v", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if pw == "" {
		log.Fatal("empty password")
	}
	hash, err := utils.HashPassword(pw, 0)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	fmt.Println(hash)
}

// Command hashpw prints a bcrypt hash for OPERATOR_PASSWORD_HASH.
//
//	go run ./cmd/hashpw -password 's3cret'
//	echo -n 's3cret' | go run ./cmd/hashpw
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"mechanic-booking/internal/pkg/password"
)

func main() {
	plain := flag.String("password", "", "password to hash (read from stdin when empty)")
	flag.Parse()

	pw := *plain
	if pw == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "no password given")
			os.Exit(2)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	hash, err := password.Hash(pw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

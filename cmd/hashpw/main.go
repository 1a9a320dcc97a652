// Command hashpw prints the bcrypt hash of the operator password so it
// can be placed in ADMIN_PASSWORD_HASH.
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/ticketry/ticket-platform/internal/utils"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <password>", os.Args[0])
	}
	hash, err := utils.HashPassword(os.Args[1], bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	fmt.Println(hash)
}

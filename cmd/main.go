// cmd/main.go
package main

import (
	"go-ledger-api/app"
)

// @title           Go-Ledger API
// @version         1.0
// @description     A ledger service tracking user balances and money transfers between users.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
func main() {
	app.Run()
}

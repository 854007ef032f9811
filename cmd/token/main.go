// Command token emite un JWT para operar la API (ej. un usuario admin que controla la sincronización).
//
//	go run ./cmd/token -sub caja-01 -role vendedor
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/ventas-api/pkg/config"
	"github.com/jhoicas/ventas-api/pkg/jwt"
)

func main() {
	sub := flag.String("sub", "operador", "subject del token")
	role := flag.String("role", jwt.RoleAdmin, "rol: admin | vendedor")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, *sub, *role, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generar token:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}

// Command admintoken prints a bearer token for the admin API, signed with the
// service's configured secret.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"matka/internal/config"
	"matka/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	var (
		subject = flag.String("subject", "", "operator identity recorded on audited writes")
		ttl     = flag.Duration("ttl", 0, "token lifetime (default: auth.token_ttl)")
		cfgPath = flag.String("config", envOr("MK_CONFIG", "config/config.yaml"), "config file")
	)
	flag.Parse()

	if strings.TrimSpace(*subject) == "" {
		fmt.Fprintln(os.Stderr, "-subject is required")
		os.Exit(2)
	}

	envOnly := strings.EqualFold(os.Getenv("MK_ENV_ONLY"), "true") || os.Getenv("MK_ENV_ONLY") == "1"
	cfg, err := config.Load(*cfgPath, envOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	j := middleware.JWT{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}
	if *ttl > 0 {
		j.TokenTTL = *ttl
	}
	tok, exp, err := j.Sign(strings.TrimSpace(*subject), middleware.RoleAdmin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
	fmt.Fprintln(os.Stderr, "expires", exp.Format(time.RFC3339))
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

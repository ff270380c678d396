package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	"github.com/radieske/bet-ledger-engine/internal/shared/config"
	"github.com/radieske/bet-ledger-engine/internal/shared/logger"
)

// token-issuer gera bearer tokens HS256 para uso local com o ledger-service.
//
//	token-issuer -user m1 -groups bet_manager,bet_consumer
func main() {
	cfg := config.Load()

	user := flag.String("user", "", "id do usuário (claim sub)")
	groups := flag.String("groups", string(auth.BetConsumer), "grupos separados por vírgula")
	ttl := flag.Duration("ttl", cfg.TokenTTL, "validade do token")
	flag.Parse()

	log, err := logger.New("token-issuer", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required outside local", zap.String("env", cfg.Env))
	}

	if *user == "" {
		log.Fatal("-user is required")
	}

	var roles []auth.Role
	for _, g := range strings.Split(*groups, ",") {
		if g = strings.TrimSpace(g); g != "" {
			roles = append(roles, auth.Role(g))
		}
	}

	j := auth.JWT{Secret: []byte(cfg.JWTSecret), TokenTTL: *ttl}
	tok, exp, err := j.Sign(*user, roles)
	if err != nil {
		log.Fatal("sign failed", zap.Error(err))
	}
	log.Info("token issued", zap.String("user", *user), zap.Strings("groups", strings.Split(*groups, ",")))

	_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
		"token":      tok,
		"expires_at": exp.Format(time.RFC3339),
	})
}

package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	Address            string        `env:"RUN_ADDRESS" envDefault:"localhost:8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"INFO"`
	DatabaseConnection string        `env:"DATABASE_URI"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"dontexposethis"`
	JWTTTL             time.Duration `env:"JWT_TTL" envDefault:"24h"`

	VNPayTmnCode    string `env:"VNPAY_TMN_CODE"`
	VNPayHashSecret string `env:"VNPAY_HASH_SECRET"`
	VNPayPayURL     string `env:"VNPAY_PAY_URL" envDefault:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
	VNPayReturnURL  string `env:"VNPAY_RETURN_URL" envDefault:"http://localhost:3000/payment/return"`

	OrderExpiryAge      time.Duration `env:"ORDER_EXPIRY_AGE" envDefault:"24h"`
	OrderExpiryInterval time.Duration `env:"ORDER_EXPIRY_INTERVAL" envDefault:"10m"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("ENV JWT_SECRET must be set")
	}
	if cfg.VNPayHashSecret == "" {
		return nil, fmt.Errorf("ENV VNPAY_HASH_SECRET must be set")
	}

	address := flag.String("a", cfg.Address, "{Host:port} for server")
	loglevel := flag.String("l", cfg.LogLevel, "Log level for server")
	databaseConnection := flag.String("d", cfg.DatabaseConnection, "Database connection string")
	jwtTTL := flag.Duration("t", cfg.JWTTTL, "TTL for JWT token(e.g. 24h; 30m )")
	expiryAge := flag.Duration("e", cfg.OrderExpiryAge, "Age after which unpaid pending orders are cancelled")
	expiryInterval := flag.Duration("i", cfg.OrderExpiryInterval, "Expiry sweep interval")

	flag.Parse()

	cfg.Address = *address
	cfg.LogLevel = *loglevel
	cfg.DatabaseConnection = *databaseConnection
	cfg.JWTTTL = *jwtTTL
	cfg.OrderExpiryAge = *expiryAge
	cfg.OrderExpiryInterval = *expiryInterval

	return cfg, nil
}

package config

import (
	"fmt"
	"net/url"

	"cms-backend/internal/infrastructure/database"
)

// DBConfig chuyển DatabaseConfig sang config của infrastructure layer
func (c *Config) DBConfig() *database.DBConfig {
	d := c.Database
	return &database.DBConfig{
		URL:               d.URL,
		Host:              d.Host,
		Port:              d.Port,
		Username:          d.User,
		Password:          d.Password,
		DBName:            d.Name,
		SSLMode:           d.SSLMode,
		MaxConns:          d.MaxConns,
		MinConns:          d.MinConns,
		MaxConnLifetime:   d.MaxConnLifetime,
		MaxConnIdleTime:   d.MaxConnIdleTime,
		HealthCheckPeriod: d.HealthCheckPeriod,
		MaxRetries:        d.MaxRetries,
		RetryDelay:        d.RetryDelay,
		ConnectTimeout:    d.ConnectTimeout,
	}
}

// DSN trả về connection string dạng URL, dùng chung cho pgx và migrate
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

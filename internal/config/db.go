package config

import (
	"net"
	"os"

	"github.com/go-sql-driver/mysql"
)

// DatabaseDSN returns the archive connection string. A complete set of DB_*
// variables wins over DATABASE_DSN; without either the local default is used.
func DatabaseDSN() string {
	parts := map[string]string{}
	for _, key := range []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME"} {
		v := os.Getenv(key)
		if v == "" {
			parts = nil
			break
		}
		parts[key] = v
	}
	if parts != nil {
		return archiveDSN(parts["DB_USER"], parts["DB_PASSWORD"],
			net.JoinHostPort(parts["DB_HOST"], parts["DB_PORT"]), parts["DB_NAME"])
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return dsn
	}
	return archiveDSN("terracurve", "terracurve", "localhost:3306", "terracurve")
}

func archiveDSN(user, password, addr, name string) string {
	c := mysql.NewConfig()
	c.User = user
	c.Passwd = password
	c.Net = "tcp"
	c.Addr = addr
	c.DBName = name
	c.ParseTime = true
	return c.FormatDSN()
}

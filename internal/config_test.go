package internal_test

import (
	"strings"
	"time"

	"github.com/frahmantamala/expense-console/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	validConfig := func() *internal.Config {
		return &internal.Config{
			Environment: "test",
			Server: internal.ServerConfig{
				Port:              8080,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
			},
			Database: internal.DatabaseConfig{Driver: internal.DriverSQLite, MaxOpenConns: 4, MaxIdleConns: 2},
			Security: internal.SecurityConfig{SessionSecret: strings.Repeat("s", 32)},
			Session:  internal.SessionConfig{Store: internal.SessionStoreSQL, TTL: time.Hour},
			Backend:  internal.BackendConfig{BaseURL: "http://localhost:8000/api", Timeout: 10 * time.Second},
			Observability: internal.ObservabilityConfig{
				Logging: internal.LoggingConfig{Level: "info", Format: "text"},
			},
		}
	}

	It("accepts a complete configuration", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("aggregates every section error", func() {
		cfg := validConfig()
		cfg.Security.SessionSecret = "short"
		cfg.Backend.BaseURL = "ftp://example.com"
		cfg.Session.Store = "memcached"

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("security config"))
		Expect(err.Error()).To(ContainSubstring("backend config"))
		Expect(err.Error()).To(ContainSubstring("session config"))
	})

	It("rejects more idle than open connections", func() {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 10
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("max_idle_conns")))
	})

	It("allows a zero backend timeout", func() {
		cfg := validConfig()
		cfg.Backend.Timeout = 0
		Expect(cfg.Validate()).To(Succeed())
	})

	Describe("LoadConfigFromEnv", func() {
		It("applies defaults and prefixed variables", func() {
			GinkgoT().Setenv("APP_ENV", "production")
			GinkgoT().Setenv("BACKEND_BASE_URL", "https://api.example.com/api")
			GinkgoT().Setenv("SESSION_STORE", "redis")
			GinkgoT().Setenv("OBSERVABILITY_LOGGING_FORMAT", "json")

			cfg, err := internal.LoadConfigFromEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Environment).To(Equal("production"))
			Expect(cfg.Backend.BaseURL).To(Equal("https://api.example.com/api"))
			Expect(cfg.Backend.Timeout).To(Equal(10 * time.Second))
			Expect(cfg.Session.Store).To(Equal(internal.SessionStoreRedis))
			Expect(cfg.Session.TTL).To(Equal(24 * time.Hour))
			Expect(cfg.Server.Port).To(Equal(8080))
			Expect(cfg.Observability.Logging.Format).To(Equal("json"))
			Expect(cfg.Modal.IdleTTL).To(Equal(30 * time.Minute))
		})
	})
})

package cache

// RedisOption configures Redis cache.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// WithRedisAddr sets the host:port address, taking precedence over
// Host and Port when non-empty.
func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = addr
	}
}

// WithRedisHost sets Redis host.
func WithRedisHost(host string) RedisOption {
	return func(c *RedisConfig) {
		c.Host = host
	}
}

// WithRedisPort sets Redis port.
func WithRedisPort(port int) RedisOption {
	return func(c *RedisConfig) {
		c.Port = port
	}
}

// WithRedisPassword sets Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

// WithRedisDB sets Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPrefix sets key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

// MemoryOption configures Memory cache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds memory cache configuration.
type MemoryConfig struct {
	MaxSize int
}

// WithMemoryMaxSize sets max cache size.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxSize = size
	}
}

package config

type StoreConfig struct {
	// DBPath is the path to the BoltDB file for pool persistence.
	// Default: "./data/advisor.db"
	DBPath string

	// PersistenceEnabled controls whether pools are persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// PersistInterval is how often pools are batch-saved to disk (in seconds).
	// Default: 30
	PersistInterval int
}

func (c *StoreConfig) Key() string {
	return STORE_CONFIG_KEY
}

func (c *StoreConfig) Load() error {
	c.DBPath = getEnvOrDefault("STORE_DB_PATH", "./data/advisor.db")
	c.PersistenceEnabled = getEnvOrDefault("STORE_PERSISTENCE_ENABLED", "true") == "true"
	c.PersistInterval = getEnvOrDefaultInt("STORE_PERSIST_INTERVAL", 30)
	return nil
}

func (c *StoreConfig) Validate() error {
	return nil
}

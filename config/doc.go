// Package config loads layered configuration with Viper.
//
// Sources, lowest to highest precedence: a YAML file (explicit path or
// searched in ./cmd/<service>/, ./config/ and the working directory), then
// environment variables, including those loaded from a .env file. Every
// variable is bound under several nested key spellings, so CACHE_DIR fills
// cache.dir and cache_dir alike. A service prefix (SAMUELIZER_CACHE_DIR) and
// explicit aliases for legacy names (OPENAI_API_KEY) are supported.
//
//	var cfg app.Config
//	err := config.LoadConfig("samuelizer", &cfg,
//	    config.WithEnvPrefix("SAMUELIZER"),
//	    config.WithEnvAliases(map[string]string{"OPENAI_API_KEY": "providers.openai.api_key"}))
package config

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"FlyerScraper/internal/models"

	"github.com/spf13/viper"
)

// BrowserConfig controls the automated Chrome instance.
type BrowserConfig struct {
	Bin         string   `mapstructure:"bin"`
	Headless    bool     `mapstructure:"headless"`
	UserAgents  []string `mapstructure:"user_agents"`
	UserDataDir string   `mapstructure:"user_data_dir"`
}

// SiteConfig holds the page structure that is not part of the user-editable selectors.
type SiteConfig struct {
	SearchURL         string `mapstructure:"search_url"`
	ContainerSelector string `mapstructure:"container_selector"`
	HeadlineSelector  string `mapstructure:"headline_selector"`
	LocationSelector  string `mapstructure:"location_selector"`
}

// ScrapeConfig holds per-run scraping settings.
type ScrapeConfig struct {
	ZIP              string        `mapstructure:"zip"`
	LowestPriceBy    string        `mapstructure:"lowest_price_by"`
	SimilarityFilter bool          `mapstructure:"similarity_filter"`
	HeadlineTimeout  time.Duration `mapstructure:"headline_timeout"`
	ListingTimeout   time.Duration `mapstructure:"listing_timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	PageDelay        time.Duration `mapstructure:"page_delay"`
	MaxPages         int           `mapstructure:"max_pages"`
	DebugDumpDir     string        `mapstructure:"debug_dump_dir"`
}

// OutputConfig controls where lists are read from and spreadsheets are written.
type OutputConfig struct {
	Dir          string `mapstructure:"dir"`
	ShoppingList string `mapstructure:"shopping_list"`
	Blacklist    string `mapstructure:"blacklist"`
}

// StorageConfig points at the run archive.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig controls the log sinks.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ServerConfig controls the results endpoint.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Browser       BrowserConfig `mapstructure:"browser"`
	Site          SiteConfig    `mapstructure:"site"`
	Scrape        ScrapeConfig  `mapstructure:"scrape"`
	Output        OutputConfig  `mapstructure:"output"`
	SelectorsFile string        `mapstructure:"selectors_file"`
	Storage       StorageConfig `mapstructure:"storage"`
	Logging       LoggingConfig `mapstructure:"logging"`
	Server        ServerConfig  `mapstructure:"server"`
}

// DefaultConfig returns a Config with the values the scraper ships with.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless: true,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			},
		},
		Site: SiteConfig{
			SearchURL:         "https://www.marktguru.de/search",
			ContainerSelector: "li",
			HeadlineSelector:  ".headline",
			LocationSelector:  ".location-text",
		},
		Scrape: ScrapeConfig{
			LowestPriceBy:   string(models.LowestByItem),
			HeadlineTimeout: 10 * time.Second,
			ListingTimeout:  120 * time.Second,
			PollInterval:    250 * time.Millisecond,
			PageDelay:       time.Second,
		},
		Output: OutputConfig{
			Dir:          ".",
			ShoppingList: "shopping_list.txt",
			Blacklist:    "item_blacklist.txt",
		},
		SelectorsFile: "selectors.yml",
		Storage:       StorageConfig{Path: "flyers.db"},
		Logging:       LoggingConfig{Level: "info"},
		Server:        ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig reads configuration from defaults, FLYER_* environment variables
// and the given file. A missing file is only an error when a path was given explicitly.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("FLYER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.user_agents", cfg.Browser.UserAgents)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)

	v.SetDefault("site.search_url", cfg.Site.SearchURL)
	v.SetDefault("site.container_selector", cfg.Site.ContainerSelector)
	v.SetDefault("site.headline_selector", cfg.Site.HeadlineSelector)
	v.SetDefault("site.location_selector", cfg.Site.LocationSelector)

	v.SetDefault("scrape.zip", cfg.Scrape.ZIP)
	v.SetDefault("scrape.lowest_price_by", cfg.Scrape.LowestPriceBy)
	v.SetDefault("scrape.similarity_filter", cfg.Scrape.SimilarityFilter)
	v.SetDefault("scrape.headline_timeout", cfg.Scrape.HeadlineTimeout)
	v.SetDefault("scrape.listing_timeout", cfg.Scrape.ListingTimeout)
	v.SetDefault("scrape.poll_interval", cfg.Scrape.PollInterval)
	v.SetDefault("scrape.page_delay", cfg.Scrape.PageDelay)
	v.SetDefault("scrape.max_pages", cfg.Scrape.MaxPages)
	v.SetDefault("scrape.debug_dump_dir", cfg.Scrape.DebugDumpDir)

	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.shopping_list", cfg.Output.ShoppingList)
	v.SetDefault("output.blacklist", cfg.Output.Blacklist)

	v.SetDefault("selectors_file", cfg.SelectorsFile)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("server.addr", cfg.Server.Addr)
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	if c.Site.SearchURL == "" {
		return fmt.Errorf("site.search_url is required")
	}
	if c.Site.ContainerSelector == "" || c.Site.HeadlineSelector == "" {
		return fmt.Errorf("site.container_selector and site.headline_selector are required")
	}
	if !models.LowestPriceKey(c.Scrape.LowestPriceBy).Valid() {
		return fmt.Errorf("scrape.lowest_price_by must be 'Item' or 'Name', got %q", c.Scrape.LowestPriceBy)
	}
	if c.Scrape.HeadlineTimeout <= 0 || c.Scrape.ListingTimeout <= 0 {
		return fmt.Errorf("scrape.headline_timeout and scrape.listing_timeout must be > 0")
	}
	if c.Scrape.PollInterval <= 0 {
		return fmt.Errorf("scrape.poll_interval must be > 0")
	}
	if c.Scrape.PageDelay < 0 {
		return fmt.Errorf("scrape.page_delay must be >= 0")
	}
	if c.Scrape.MaxPages < 0 {
		return fmt.Errorf("scrape.max_pages must be >= 0")
	}
	if c.Browser.Bin != "" {
		if _, err := os.Stat(c.Browser.Bin); err != nil {
			return fmt.Errorf("browser.bin: Chrome executable not found at %s", c.Browser.Bin)
		}
	}
	return nil
}
